package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEnvironmentUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Environment
		wantErr bool
	}{
		{
			name:  "plain strings",
			input: `{"MYSQL_USER":"admin","MYSQL_PASSWORD":"secret"}`,
			want: Environment{
				{Key: "MYSQL_PASSWORD", Value: "secret"},
				{Key: "MYSQL_USER", Value: "admin"},
			},
		},
		{
			name:  "extended form",
			input: `{"MYSQL_DATABASE":{"value":"{{ .Application.Name }}","templated":true,"replicate":true}}`,
			want: Environment{
				{Key: "MYSQL_DATABASE", Value: "{{ .Application.Name }}", Templated: true, Replicate: true},
			},
		},
		{
			name:  "mixed forms",
			input: `{"A":"1","B":{"value":"2","replicate":true}}`,
			want: Environment{
				{Key: "A", Value: "1"},
				{Key: "B", Value: "2", Replicate: true},
			},
		},
		{name: "not an object", input: `["A=1"]`, wantErr: true},
		{name: "bad value", input: `{"A":42}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Environment
			err := json.Unmarshal([]byte(tt.input), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestEnvironmentMarshalJSON(t *testing.T) {
	env := Environment{
		{Key: "PLAIN", Value: "v"},
		{Key: "FLAGGED", Value: "w", Templated: true},
	}
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"FLAGGED":{"value":"w","templated":true},"PLAIN":"v"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestEnvironmentReplicated(t *testing.T) {
	env := Environment{
		{Key: "A", Value: "1"},
		{Key: "B", Value: "2", Replicate: true},
		{Key: "C", Value: "3", Replicate: true},
	}
	got := env.Replicated()
	want := Environment{
		{Key: "B", Value: "2", Replicate: true},
		{Key: "C", Value: "3", Replicate: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Replicated() = %+v, want %+v", got, want)
	}
	if got := Environment(nil).Replicated(); got != nil {
		t.Errorf("Replicated() of empty env = %+v, want nil", got)
	}
}

func TestEnvironmentGet(t *testing.T) {
	env := Environment{{Key: "A", Value: "1"}}
	if v, ok := env.Get("A"); !ok || v.Value != "1" {
		t.Errorf("Get(A) = %+v, %v", v, ok)
	}
	if _, ok := env.Get("missing"); ok {
		t.Error("Get(missing) must report false")
	}
}
