// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestIsFatalFsnotifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{syscall.ENOSPC, true},
		{fmt.Errorf("add: %w", syscall.EMFILE), true},
		{syscall.ENFILE, true},
		{syscall.EACCES, false},
		{errors.New("queue overflow"), false},
	}
	for _, tt := range tests {
		if got := isFatalFsnotifyError(tt.err); got != tt.want {
			t.Errorf("isFatalFsnotifyError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
