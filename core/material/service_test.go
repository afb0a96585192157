package material

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/assignment"
	"github.com/trezcool/classportal/storage/blob"
	"github.com/trezcool/classportal/storage/kv/memory"
)

func newService(t *testing.T, mem *memory.Storage, blobs blob.Store) *Service {
	t.Helper()
	svc := NewService(mem, blobs, core.NopLogger{})
	tick := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.nowFunc = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return svc
}

func file(name, content string) *File {
	return &File{Filename: name, ContentType: "text/plain", Body: strings.NewReader(content)}
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return string(data)
}

func TestService_Upload(t *testing.T) {
	svc := newService(t, memory.New(), blob.NewMemory())

	tests := []struct {
		name        string
		nm          NewMaterial
		file        *File
		wantVersion int
		wantErr     bool
	}{
		{name: "document", nm: NewMaterial{Title: "Modul 1", UploadedBy: "t1"}, file: file("modul.PDF", "v1"), wantVersion: 1},
		{name: "link", nm: NewMaterial{Title: "Video", Kind: "Link", URL: "https://video.school.test/1", UploadedBy: "t1"}},
		{name: "link without url", nm: NewMaterial{Title: "Video", Kind: KindLink, UploadedBy: "t1"}, wantErr: true},
		{name: "document without file", nm: NewMaterial{Title: "Modul 2", UploadedBy: "t1"}, wantErr: true},
		{name: "unknown kind", nm: NewMaterial{Title: "X", Kind: "podcast", UploadedBy: "t1"}, file: file("x.mp3", "x"), wantErr: true},
		{name: "no title", nm: NewMaterial{UploadedBy: "t1"}, file: file("x.txt", "x"), wantErr: true},
		{name: "no filename", nm: NewMaterial{Title: "X", UploadedBy: "t1"}, file: &File{Body: strings.NewReader("x")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := svc.Upload(context.Background(), tt.nm, tt.file)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Upload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && m.CurrentVersion != tt.wantVersion {
				t.Errorf("Upload().CurrentVersion = %d, want %d", m.CurrentVersion, tt.wantVersion)
			}
		})
	}
	if got := len(svc.List()); got != 2 {
		t.Errorf("List() = %d materials, want 2", got)
	}
}

func TestService_Versions(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	blobs := blob.NewMemory()
	svc := newService(t, mem, blobs)
	m, err := svc.Upload(ctx, NewMaterial{Title: "Modul", Subject: "Kimia", UploadedBy: "t1"}, file("modul.txt", "first"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	v2, err := svc.AddVersion(ctx, m.ID, file("modul-rev.txt", "second"), "typo fixes", "t1")
	if err != nil {
		t.Fatalf("AddVersion() error = %v", err)
	}
	if v2.Number != 2 || v2.Filename != "modul-rev.txt" || v2.Size != 6 {
		t.Errorf("AddVersion() = %+v", v2)
	}

	tests := []struct {
		name    string
		number  int
		want    string
		wantErr error
	}{
		{name: "current", number: 0, want: "second"},
		{name: "first", number: 1, want: "first"},
		{name: "missing", number: 3, wantErr: ErrVersionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rc, err := svc.Open(ctx, m.ID, tt.number)
			if err != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if got := readAll(t, rc); got != tt.want {
					t.Errorf("Open() content = %q, want %q", got, tt.want)
				}
			}
		})
	}

	reloaded := newService(t, mem, blobs)
	got, _ := reloaded.Get(m.ID)
	if got.CurrentVersion != 2 || got.Downloads != 2 {
		t.Errorf("Get() = %+v, want version 2 and 2 downloads", got)
	}
	if vs := reloaded.Versions(m.ID); len(vs) != 2 || vs[0].Number != 1 {
		t.Errorf("Versions() = %+v", vs)
	}
	if _, err := svc.DownloadURL(ctx, m.ID, 0, time.Minute); err != blob.ErrUnsupported {
		t.Errorf("DownloadURL() error = %v, want %v", err, blob.ErrUnsupported)
	}
}

func TestService_ConcurrentVersions(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), blob.NewMemory(), core.NopLogger{})
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.nowFunc = func() time.Time { return at }
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	m, err := svc.Upload(ctx, NewMaterial{Title: "Modul", UploadedBy: "t1"}, file("modul.txt", "v1"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	const workers = 12
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddVersion(ctx, m.ID, file("modul.txt", "next"), "", "t1"); err != nil {
				t.Errorf("AddVersion() error = %v", err)
			}
		}()
	}
	wg.Wait()

	vs := svc.Versions(m.ID)
	if len(vs) != workers+1 {
		t.Fatalf("Versions() = %d versions, want %d", len(vs), workers+1)
	}
	for i, v := range vs {
		if v.Number != i+1 {
			t.Errorf("Versions()[%d].Number = %d, want %d", i, v.Number, i+1)
		}
	}
	if got, _ := svc.Get(m.ID); got.CurrentVersion != workers+1 {
		t.Errorf("CurrentVersion = %d, want %d", got.CurrentVersion, workers+1)
	}
}

// Deleting a material clears its versions and files but not the ids assignments hold.
func TestService_DeleteLeavesAssignmentReferences(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	blobs := blob.NewMemory()
	svc := newService(t, mem, blobs)
	m, _ := svc.Upload(ctx, NewMaterial{Title: "Modul", UploadedBy: "t1"}, file("modul.txt", "first"))
	_, _ = svc.AddVersion(ctx, m.ID, file("modul.txt", "second"), "", "t1")

	assignments := assignment.NewService(mem)
	if err := assignments.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	a, err := assignments.Create(ctx, assignment.NewAssignment{
		Title:       "Latihan",
		Subject:     "Kimia",
		DueAt:       time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		MaterialIDs: []string{m.ID},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if ok, err := svc.Delete(ctx, m.ID); !ok || err != nil {
		t.Fatalf("Delete() = %v, %v", ok, err)
	}
	if _, err := svc.Get(m.ID); err != ErrNotFound {
		t.Errorf("Get() error = %v, want %v", err, ErrNotFound)
	}
	if vs := svc.Versions(m.ID); len(vs) != 0 {
		t.Errorf("Versions() = %+v, want none", vs)
	}
	if infos, _ := blobs.List(ctx, "materials/"); len(infos) != 0 {
		t.Errorf("blobs left = %+v", infos)
	}

	got, _ := assignments.Get(a.ID)
	if len(got.MaterialIDs) != 1 || got.MaterialIDs[0] != m.ID {
		t.Errorf("Assignment.MaterialIDs = %v, want the dangling %s", got.MaterialIDs, m.ID)
	}
	if ok, _ := svc.Delete(ctx, m.ID); ok {
		t.Error("Delete() of a deleted material = true")
	}
}

func TestService_Search(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.New(), blob.NewMemory())
	_, _ = svc.Upload(ctx, NewMaterial{Title: "Tabel Periodik", Subject: "Kimia", UploadedBy: "t1"}, file("t.txt", "x"))
	_, _ = svc.Upload(ctx, NewMaterial{Title: "Sel", Description: "Struktur sel hewan", Subject: "Biologi", UploadedBy: "t1"}, file("s.txt", "x"))

	if got := svc.Search("STRUKTUR"); len(got) != 1 || got[0].Title != "Sel" {
		t.Errorf("Search() = %+v", got)
	}
	if got := svc.BySubject("Kimia"); len(got) != 1 {
		t.Errorf("BySubject() = %d materials, want 1", len(got))
	}
	title := " "
	if _, err := svc.Update(ctx, svc.List()[0].ID, UpdateMaterial{Title: &title}); err == nil {
		t.Error("Update(blank title) succeeded")
	}
}
