package dig_container

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/classportal/apps/api/echo"
	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/analytics"
	"github.com/trezcool/classportal/core/announcement"
	"github.com/trezcool/classportal/core/assignment"
	"github.com/trezcool/classportal/core/collaboration"
	"github.com/trezcool/classportal/core/feedback"
	"github.com/trezcool/classportal/core/forum"
	"github.com/trezcool/classportal/core/grade"
	"github.com/trezcool/classportal/core/knowledge"
	"github.com/trezcool/classportal/core/material"
	"github.com/trezcool/classportal/core/report"
	"github.com/trezcool/classportal/core/store"
	"github.com/trezcool/classportal/core/user"
	emailsvc "github.com/trezcool/classportal/services/email"
	logsvc "github.com/trezcool/classportal/services/logger"
	"github.com/trezcool/classportal/services/metrics"
	"github.com/trezcool/classportal/storage/blob"
	"github.com/trezcool/classportal/storage/kv"
)

// Stores lists every domain store, so they can all be hydrated before the server starts.
type Stores struct {
	dig.In

	Users         *user.Service
	Announcements *announcement.Service
	Assignments   *assignment.Service
	Grades        *grade.Service
	Feedback      *feedback.Service
	Forums        *forum.Service
	Knowledge     *knowledge.Service
	Collaboration *collaboration.Service
	Materials     *material.Service
}

// Load hydrates every store from storage.
func (s Stores) Load(ctx context.Context) error {
	loaders := []struct {
		name string
		load func(context.Context) error
	}{
		{"users", s.Users.Load},
		{"announcements", s.Announcements.Load},
		{"assignments", s.Assignments.Load},
		{"grades", s.Grades.Load},
		{"feedback", s.Feedback.Load},
		{"forums", s.Forums.Load},
		{"knowledge", s.Knowledge.Load},
		{"collaboration", s.Collaboration.Load},
		{"materials", s.Materials.Load},
	}
	for _, l := range loaders {
		if err := l.load(ctx); err != nil {
			return errors.Wrapf(err, "loading %s", l.name)
		}
	}
	return nil
}

func newStorage(conf *core.Config, m *metrics.Metrics) (store.Storage, error) {
	s, err := kv.Open(context.Background(), conf.Storage)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s storage", conf.Storage.Driver)
	}
	return metrics.InstrumentStorage(s, m), nil
}

func newBlobStore(conf *core.Config) (blob.Store, error) {
	b, err := blob.Open(context.Background(), conf.Blob)
	return b, errors.Wrapf(err, "opening %s blob store", conf.Blob.Driver)
}

func newAnnouncementService(
	storage store.Storage,
	conf *core.Config,
	mailSvc core.EmailService,
	users *user.Service,
) *announcement.Service {
	return announcement.NewService(storage, conf, mailSvc, users)
}

func newReportGenerator(
	users *user.Service,
	grades *grade.Service,
	assignments *assignment.Service,
	fb *feedback.Service,
) *report.Generator {
	return report.NewGenerator(users, grades, assignments, fb)
}

func newAnalyticsEngine(
	users *user.Service,
	grades *grade.Service,
	assignments *assignment.Service,
	forums *forum.Service,
	kb *knowledge.Service,
	collab *collaboration.Service,
) *analytics.Engine {
	return analytics.NewEngine(users, grades, assignments, forums, kb, collab)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(logsvc.New))
	must(c.Provide(metrics.New))
	must(c.Provide(newStorage))
	must(c.Provide(newBlobStore))
	must(c.Provide(emailsvc.NewService))

	must(c.Provide(user.NewService))
	must(c.Provide(newAnnouncementService))
	must(c.Provide(assignment.NewService))
	must(c.Provide(grade.NewService))
	must(c.Provide(feedback.NewService))
	must(c.Provide(forum.NewService))
	must(c.Provide(knowledge.NewService))
	must(c.Provide(collaboration.NewService))
	must(c.Provide(material.NewService))
	must(c.Provide(newReportGenerator))
	must(c.Provide(newAnalyticsEngine))

	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
