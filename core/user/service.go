// Package user manages the portal accounts: students, teachers and admins.
package user

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

const Slot = "users"

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrUsernameExists     = errors.New("a user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
)

const passwordResetText = `Hi {{.Name}},

You're receiving this email because you requested a password reset for your user account at {{.AppName}}.

Please go to the following page and choose a new password:
{{.URL}}

If you did not request a password reset, please ignore this email.`

type Service struct {
	users   *store.Collection[record]
	mailSvc core.EmailService
	tokens  tokenGenerator
	conf    *core.Config
}

func NewService(storage store.Storage, conf *core.Config, mailSvc core.EmailService) *Service {
	return &Service{
		users:   store.NewCollection[record](storage, Slot, recordKey, store.WithClone(cloneRecord)),
		mailSvc: mailSvc,
		conf:    conf,
		tokens: tokenGenerator{
			secretKey: []byte(conf.SecretKey),
			timeout:   conf.PasswordResetTimeoutDelta,
			nowFunc:   time.Now,
		},
	}
}

// Load hydrates the users from storage.
func (svc *Service) Load(ctx context.Context) error {
	return svc.users.Load(ctx)
}

func toUsers(recs []record) []User {
	users := make([]User, 0, len(recs))
	for _, r := range recs {
		users = append(users, r.user())
	}
	return users
}

// CheckUniqueness returns a *core.ValidationError if another user than exclUsers has uname or email.
func (svc *Service) CheckUniqueness(uname, email string, exclUsers ...User) error {
	excluded := func(id string) bool {
		for _, u := range exclUsers {
			if u.ID == id {
				return true
			}
		}
		return false
	}
	conflict := clash(uname, email)
	for _, r := range svc.users.All() {
		if excluded(r.ID) {
			continue
		}
		if err := conflict(r); err != nil {
			return err
		}
	}
	return nil
}

// clash returns a check failing when a stored user already has uname or email.
// Writes run it under the collection lock; CheckUniqueness only reports early.
func clash(uname, email string) func(r record) error {
	return func(r record) error {
		if uname != "" && r.Username == uname {
			return core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
		}
		if email != "" && r.Email == email {
			return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
		return nil
	}
}

// wrapWrite keeps validation errors as they are and wraps the rest with msg.
func wrapWrite(err error, msg string) error {
	if core.IsValidationError(err) {
		return err
	}
	return pkgerrors.Wrap(err, msg)
}

// Create validates nu (password policy included) and adds an active user.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     nu.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	rec, err := svc.users.AddUnless(ctx, toRecord(usr), clash(usr.Username, usr.Email))
	if err != nil {
		return User{}, wrapWrite(err, "adding user")
	}
	return rec.user(), nil
}

// Save creates the user matching usr's username or email, or updates it, setting pwd without applying
// the password policy. It backs the admin console.
func (svc *Service) Save(ctx context.Context, usr User, pwd string) (User, error) {
	usr.Username = core.CleanString(usr.Username, true /* lower */)
	usr.Email = core.CleanString(usr.Email, true /* lower */)
	usr.Name = core.CleanString(usr.Name)
	if usr.Username == "" && usr.Email == "" {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "username", Error: usernameOrEmailText})
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			return User{}, err
		}
	}
	now := time.Now().UTC()
	usr.UpdatedAt = now

	orig, found := svc.users.Find(func(r record) bool {
		return (usr.Username != "" && r.Username == usr.Username) || (usr.Email != "" && r.Email == usr.Email)
	})
	if !found {
		usr.CreatedAt = now
		rec, err := svc.users.AddUnless(ctx, toRecord(usr), clash(usr.Username, usr.Email))
		if err != nil {
			return User{}, wrapWrite(err, "adding user")
		}
		return rec.user(), nil
	}

	rec, err := svc.users.ModifyUnless(ctx, orig.ID, clash(usr.Username, usr.Email), func(r *record) error {
		if usr.Name != "" {
			r.Name = usr.Name
		}
		if usr.Username != "" {
			r.Username = usr.Username
		}
		if usr.Email != "" {
			r.Email = usr.Email
		}
		if usr.Roles != nil {
			r.Roles = append([]string(nil), usr.Roles...)
		}
		if usr.PasswordHash != nil {
			r.PasswordHash = append([]byte(nil), usr.PasswordHash...)
		}
		r.IsActive = usr.IsActive
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return User{}, wrapWrite(err, "updating user")
	}
	return rec.user(), nil
}

func (svc *Service) QueryAll() []User {
	users := toUsers(svc.users.All())
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users
}

func (svc *Service) GetByID(id string) (User, error) {
	rec, err := svc.users.Get(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	return rec.user(), nil
}

func (svc *Service) find(pred func(r record) bool) (User, error) {
	if rec, ok := svc.users.Find(pred); ok {
		return rec.user(), nil
	}
	return User{}, ErrNotFound
}

func (svc *Service) GetByUsername(uname string) (User, error) {
	uname = core.CleanString(uname, true /* lower */)
	return svc.find(func(r record) bool { return uname != "" && r.Username == uname })
}

func (svc *Service) GetByEmail(email string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	return svc.find(func(r record) bool { return email != "" && r.Email == email })
}

func (svc *Service) GetByUsernameOrEmail(uname string) (User, error) {
	uname = core.CleanString(uname, true /* lower */)
	return svc.find(func(r record) bool { return uname != "" && (r.Username == uname || r.Email == uname) })
}

func (svc *Service) Filter(filter QueryFilter) []User {
	filter.Clean()
	users := toUsers(svc.users.Filter(func(r record) bool { return filter.Match(r.User) }))
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users
}

// Update validates uu against the current user and applies the fields it sets.
func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	orig, err := svc.GetByID(id)
	if err != nil {
		return User{}, err
	}
	if err := uu.Validate(orig, svc); err != nil {
		return User{}, err
	}

	var hash []byte
	if uu.Password != "" {
		tmp := User{}
		if err := tmp.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
		hash = tmp.PasswordHash
	}
	rec, err := svc.users.ModifyUnless(ctx, id, clash(uu.Username, uu.Email), func(r *record) error {
		r.Name = uu.Name
		r.Username = uu.Username
		r.Email = uu.Email
		if uu.Roles != nil {
			r.Roles = uu.Roles
		}
		if uu.IsActive != nil {
			r.IsActive = *uu.IsActive
		}
		if hash != nil {
			r.PasswordHash = hash
		}
		r.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		if err == store.ErrNotFound {
			return User{}, ErrNotFound
		}
		return User{}, wrapWrite(err, "updating user")
	}
	return rec.user(), nil
}

// SetPassword sets the password of a user without applying the password policy.
func (svc *Service) SetPassword(ctx context.Context, id, pwd string) (User, error) {
	tmp := User{}
	if err := tmp.SetPassword(pwd); err != nil {
		return User{}, err
	}
	return svc.patch(ctx, id, func(r *record) {
		r.PasswordHash = tmp.PasswordHash
		r.UpdatedAt = time.Now().UTC()
	})
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	return svc.patch(ctx, usr.ID, func(r *record) { r.LastLogin = time.Now().UTC() })
}

func (svc *Service) patch(ctx context.Context, id string, fn func(r *record)) (User, error) {
	rec, err := svc.users.Update(ctx, id, fn)
	if err != nil {
		if err == store.ErrNotFound {
			return User{}, ErrNotFound
		}
		return User{}, pkgerrors.Wrap(err, "updating user")
	}
	return rec.user(), nil
}

// Authenticate checks the credentials of an active user and records the login.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string) (User, error) {
	usr, err := svc.GetByUsernameOrEmail(uname)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	return svc.SetLastLogin(ctx, usr)
}

// Delete removes the users with the given ids and returns how many were removed.
func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := svc.users.DeleteWhere(ctx, func(r record) bool { return core.ContainsString(ids, r.ID) })
	return n, pkgerrors.Wrap(err, "deleting users")
}

// WithRole returns the active users holding any role starting with one of the prefixes, sorted by name.
func (svc *Service) WithRole(prefixes ...string) []User {
	users := toUsers(svc.users.Filter(func(r record) bool {
		if !r.IsActive {
			return false
		}
		for _, prefix := range prefixes {
			if r.RoleStartsWith(prefix) {
				return true
			}
		}
		return false
	}))
	sort.SliceStable(users, func(i, j int) bool {
		return strings.ToLower(users[i].DisplayName()) < strings.ToLower(users[j].DisplayName())
	})
	return users
}

// Students returns the active students, sorted by name.
func (svc *Service) Students() []User {
	return svc.WithRole(RoleStudent)
}

// Recipients returns the email addresses of the active users holding one of the role prefixes.
func (svc *Service) Recipients(prefixes ...string) []mail.Address {
	addrs := make([]mail.Address, 0)
	for _, usr := range svc.WithRole(prefixes...) {
		if usr.Email != "" {
			addrs = append(addrs, mail.Address{Name: usr.DisplayName(), Address: usr.Email})
		}
	}
	return addrs
}

// RequestPasswordReset emails a password reset link to the active user with this email.
func (svc *Service) RequestPasswordReset(email string) error {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	svc.mailSvc.SendMessages(svc.passwordResetMessage(usr))
	return nil
}

func (svc *Service) passwordResetMessage(usr User) *core.EmailMessage {
	url := strings.TrimRight(svc.conf.FrontendBaseURL, "/") +
		"/password-reset/" + EncodeUID(usr) + "/" + svc.tokens.makeToken(usr)
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.DisplayName(), Address: usr.Email}},
		Subject:      "Password Reset",
		TextTemplate: passwordResetText,
		TemplateData: map[string]string{
			"Name":    usr.DisplayName(),
			"AppName": svc.conf.AppName,
			"URL":     url,
		},
	}
}

// ResetPassword sets a new password (policy applied) once the reset token is verified.
func (svc *Service) ResetPassword(ctx context.Context, data ResetUserPassword) (User, error) {
	if err := data.Validate(); err != nil {
		return User{}, err
	}
	invalid := core.NewValidationError(errInvalidToken, core.FieldError{Field: "token", Error: errInvalidToken.Error()})

	id, err := decodeUID(data.UID)
	if err != nil {
		return User{}, invalid
	}
	usr, err := svc.GetByID(id)
	if err != nil {
		return User{}, invalid
	}
	if err := svc.tokens.verifyToken(usr, data.Token); err != nil {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	return svc.Update(ctx, usr.ID, UpdateUser{Password: data.Password, PasswordConfirm: data.PasswordConfirm})
}
