package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rushteam/shoprec/pkg/utils"
)

func TestDomainErrorChecks(t *testing.T) {
	if !IsUnavailable(ErrStoreUnavailable) {
		t.Error("ErrStoreUnavailable should be UNAVAILABLE")
	}
	if !IsUnavailable(ErrNoCredential) {
		t.Error("ErrNoCredential should be UNAVAILABLE")
	}
	if !IsStoreNotFound(ErrStoreNotFound) {
		t.Error("ErrStoreNotFound should match IsStoreNotFound")
	}
	if IsStoreNotFound(ErrNoCredential) {
		t.Error("rerank error must not match store checks")
	}
	if IsNotFound(errors.New("plain")) || IsUnavailable(nil) {
		t.Error("non-domain errors must not match")
	}
}

func TestDomainErrorWrapping(t *testing.T) {
	wrapped := fmt.Errorf("build snapshot: %w", ErrStoreUnavailable)
	if !errors.Is(wrapped, ErrStoreUnavailable) {
		t.Error("errors.Is should see through fmt.Errorf wrapping")
	}
}

func TestItemLabelMergeOnDuplicate(t *testing.T) {
	it := NewItem("p1")
	it.PutLabel("recall_source", utils.Label{Value: "itemcf", Source: "recall"})
	it.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})

	lbl, ok := it.GetLabel("recall_source")
	if !ok {
		t.Fatal("label missing")
	}
	if lbl.Value != "itemcf|popular" {
		t.Errorf("merged value = %q, want itemcf|popular", lbl.Value)
	}
}

func TestColdStartProfile(t *testing.T) {
	p := NewColdStartProfile("u404")
	if p.UserID != "u404" {
		t.Errorf("user id = %s", p.UserID)
	}
	if len(p.History) != 0 || len(p.TopClusters) != 0 {
		t.Error("cold-start profile must be empty")
	}
	if p.PersonaHint == "" {
		t.Error("cold-start profile needs a persona hint")
	}
}
