package logsvc

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/trezcool/classportal/core/user"
)

func TestConsoleLogger(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		log       func(l *ConsoleLogger)
		wantEmpty bool
		want      map[string]interface{}
	}{
		{
			name:      "debug filtered",
			log:       func(l *ConsoleLogger) { l.Debug("hidden") },
			wantEmpty: true,
		},
		{
			name:  "debug enabled",
			debug: true,
			log:   func(l *ConsoleLogger) { l.Debug("shown") },
			want:  map[string]interface{}{"level": "debug", "message": "shown"},
		},
		{
			name: "error with args",
			log: func(l *ConsoleLogger) {
				l.Error("write failed", errors.New("quota"), map[string]interface{}{"slot": "grades"}, user.User{ID: "u1", Username: "ana"})
			},
			want: map[string]interface{}{
				"level": "error", "message": "write failed", "error": "quota",
				"slot": "grades", "user_id": "u1", "username": "ana",
			},
		},
		{
			name: "other args",
			log:  func(l *ConsoleLogger) { l.Warn("odd", 42) },
			want: map[string]interface{}{"level": "warn", "message": "odd", "arg1": "42"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewConsoleLogger(&buf, false, tt.debug))

			if tt.wantEmpty {
				if buf.Len() != 0 {
					t.Errorf("output = %s, want none", buf.String())
				}
				return
			}
			var got map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("json.Unmarshal() error = %v (%s)", err, buf.String())
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("field %s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}
