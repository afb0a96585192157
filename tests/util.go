// Package testutil builds the domain stores on in-memory storage for tests.
package testutil

import (
	"context"
	"testing"

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
	"github.com/trezcool/classportal/core/user"
	"github.com/trezcool/classportal/storage/blob"
	"github.com/trezcool/classportal/storage/kv/memory"
)

// Stores holds every store, loaded from one in-memory storage.
type Stores struct {
	Conf    *core.Config
	Storage *memory.Storage
	Blobs   *blob.Memory
	Mail    core.EmailService

	Users         *user.Service
	Announcements *announcement.Service
	Assignments   *assignment.Service
	Grades        *grade.Service
	Feedback      *feedback.Service
	Forums        *forum.Service
	Knowledge     *knowledge.Service
	Collaboration *collaboration.Service
	Materials     *material.Service
	Reports       *report.Generator
	Analytics     *analytics.Engine
}

// NewStores returns loaded stores. Emails go to mailSvc, or nowhere when it is nil.
func NewStores(t *testing.T, mailSvc core.EmailService) *Stores {
	t.Helper()
	if mailSvc == nil {
		mailSvc = core.NopEmailService{}
	}
	s := &Stores{
		Conf:    core.NewTestConfig(),
		Storage: memory.New(),
		Blobs:   blob.NewMemory(),
		Mail:    mailSvc,
	}
	s.Users = user.NewService(s.Storage, s.Conf, mailSvc)
	s.Announcements = announcement.NewService(s.Storage, s.Conf, mailSvc, s.Users)
	s.Assignments = assignment.NewService(s.Storage)
	s.Grades = grade.NewService(s.Storage)
	s.Feedback = feedback.NewService(s.Storage)
	s.Forums = forum.NewService(s.Storage)
	s.Knowledge = knowledge.NewService(s.Storage)
	s.Collaboration = collaboration.NewService(s.Storage)
	s.Materials = material.NewService(s.Storage, s.Blobs, core.NopLogger{})
	s.Reports = report.NewGenerator(s.Users, s.Grades, s.Assignments, s.Feedback)
	s.Analytics = analytics.NewEngine(s.Users, s.Grades, s.Assignments, s.Forums, s.Knowledge, s.Collaboration)

	ctx := context.Background()
	for _, load := range []func(context.Context) error{
		s.Users.Load, s.Announcements.Load, s.Assignments.Load, s.Grades.Load, s.Feedback.Load,
		s.Forums.Load, s.Knowledge.Load, s.Collaboration.Load, s.Materials.Load,
	} {
		if err := load(ctx); err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
	}
	return s
}

// CreateUser saves a user. pwd is set without the password policy; "" leaves the user without password.
func CreateUser(
	t *testing.T,
	svc *user.Service,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
) user.User {
	t.Helper()
	usr, err := svc.Save(context.Background(), user.User{
		Name:     name,
		Username: uname,
		Email:    email,
		Roles:    roles,
		IsActive: isActive,
	}, pwd)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
