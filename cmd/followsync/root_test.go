package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	errs "followsync/pkg/errors"
	"followsync/pkg/ui"
)

func TestReportErrorHintsOnConfigErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	term := ui.NewTerminal(&out, &errOut, false)

	reportError(term, errs.New(errs.KindConfig, errs.StageListTargets, "registry unreachable"))

	assert.Contains(t, errOut.String(), "registry unreachable")
	assert.Contains(t, out.String(), "followsync config validate")
}

func TestReportErrorWithoutHint(t *testing.T) {
	var out, errOut bytes.Buffer
	term := ui.NewTerminal(&out, &errOut, false)

	reportError(term, errors.New("boom"))

	assert.Contains(t, errOut.String(), "boom")
	assert.Empty(t, out.String())
}
