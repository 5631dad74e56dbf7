package validate

import (
	"strings"
	"testing"

	perr "indexcrawler/internal/platform/errors"
)

type sample struct {
	Mode     string `json:"output" validate:"oneof=console queue"`
	Topic    string `json:"kafka_topic" validate:"required_if=Mode queue"`
	Batch    int    `json:"batch_size" validate:"gte=1"`
	Internal string `json:"-" validate:"omitempty,url"`
}

func TestStruct(t *testing.T) {
	if err := Struct(sample{Mode: "console", Batch: 50}); err != nil {
		t.Fatalf("valid struct: %v", err)
	}

	err := Struct(sample{Mode: "queue", Batch: 0, Internal: "::"})
	if !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("code = %v (%v)", perr.CodeOf(err), err)
	}
	msg := err.Error()
	for _, want := range []string{"kafka_topic", "batch_size", "Internal"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestGetIsSingleton(t *testing.T) {
	if Get() != Get() {
		t.Fatalf("Get should return one instance")
	}
}
