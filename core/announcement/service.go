// Package announcement posts class announcements and emails them to their audience.
package announcement

import (
	"context"
	"errors"
	"net/mail"
	"sort"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/store"
)

const Slot = "announcements"

var ErrNotFound = errors.New("announcement not found")

// RecipientSource resolves the email addresses of the active users holding a role prefix.
type RecipientSource interface {
	Recipients(rolePrefixes ...string) []mail.Address
}

// audienceRoles maps an audience to user role prefixes ("" matches every role).
var audienceRoles = map[string][]string{
	AudienceAll:      {""},
	AudienceStudents: {"student:"},
	AudienceTeachers: {"teacher:"},
}

const announcementText = `{{.Content}}

-- 
{{.AppName}}`

type Service struct {
	announcements *store.Collection[Announcement]
	mailSvc       core.EmailService
	recipients    RecipientSource
	appName       string
	nowFunc       func() time.Time // mockable
}

// NewService returns the announcement store. Notifications are sent only when both mailSvc and recipients are set.
func NewService(storage store.Storage, conf *core.Config, mailSvc core.EmailService, recipients RecipientSource) *Service {
	return &Service{
		announcements: store.NewCollection[Announcement](storage, Slot, announcementKey),
		mailSvc:       mailSvc,
		recipients:    recipients,
		appName:       conf.AppName,
		nowFunc:       time.Now,
	}
}

func (svc *Service) Load(ctx context.Context) error {
	return svc.announcements.Load(ctx)
}

// Post adds an announcement and, when asked, emails it to its audience.
func (svc *Service) Post(ctx context.Context, na NewAnnouncement) (Announcement, error) {
	if err := na.Validate(); err != nil {
		return Announcement{}, err
	}
	now := svc.nowFunc().UTC()
	a, err := svc.announcements.Add(ctx, Announcement{
		Title:     na.Title,
		Content:   na.Content,
		AuthorID:  na.AuthorID,
		Audience:  na.Audience,
		Pinned:    na.Pinned,
		PostedAt:  now,
		UpdatedAt: now,
	})
	if err != nil {
		return Announcement{}, pkgerrors.Wrap(err, "adding announcement")
	}
	if na.Notify {
		svc.notify(a)
	}
	return a, nil
}

func (svc *Service) notify(a Announcement) {
	if svc.mailSvc == nil || svc.recipients == nil {
		return
	}
	to := svc.recipients.Recipients(audienceRoles[a.Audience]...)
	if len(to) == 0 {
		return
	}
	// one message per recipient
	msgs := make([]*core.EmailMessage, 0, len(to))
	for _, addr := range to {
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{addr},
			Subject:      a.Title,
			TextTemplate: announcementText,
			TemplateData: map[string]string{"Content": a.Content, "AppName": svc.appName},
		})
	}
	svc.mailSvc.SendMessages(msgs...)
}

func (svc *Service) Update(ctx context.Context, id string, ua UpdateAnnouncement) (Announcement, error) {
	if err := ua.Validate(); err != nil {
		return Announcement{}, err
	}
	if ua.IsEmpty() {
		return svc.Get(id)
	}
	a, err := svc.announcements.Update(ctx, id, func(a *Announcement) {
		if ua.Title != nil {
			a.Title = *ua.Title
		}
		if ua.Content != nil {
			a.Content = *ua.Content
		}
		if ua.Audience != nil {
			a.Audience = *ua.Audience
		}
		if ua.Pinned != nil {
			a.Pinned = *ua.Pinned
		}
		a.UpdatedAt = svc.nowFunc().UTC()
	})
	if err != nil {
		if err == store.ErrNotFound {
			return Announcement{}, ErrNotFound
		}
		return Announcement{}, pkgerrors.Wrap(err, "updating announcement")
	}
	return a, nil
}

func (svc *Service) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := svc.announcements.Delete(ctx, id)
	return ok, pkgerrors.Wrap(err, "deleting announcement")
}

func (svc *Service) Get(id string) (Announcement, error) {
	a, err := svc.announcements.Get(id)
	if err != nil {
		return Announcement{}, ErrNotFound
	}
	return a, nil
}

// List returns every announcement, pinned first then newest first.
func (svc *Service) List() []Announcement {
	return sortAnnouncements(svc.announcements.All())
}

// ForAudience returns the announcements a user with the given role sees.
func (svc *Service) ForAudience(role string) []Announcement {
	return sortAnnouncements(svc.announcements.Filter(func(a Announcement) bool {
		if a.Audience == AudienceAll {
			return true
		}
		for _, prefix := range audienceRoles[a.Audience] {
			if prefix != "" && strings.HasPrefix(role, prefix) {
				return true
			}
		}
		return false
	}))
}

func sortAnnouncements(all []Announcement) []Announcement {
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Pinned != all[j].Pinned {
			return all[i].Pinned
		}
		return all[i].PostedAt.After(all[j].PostedAt)
	})
	return all
}
