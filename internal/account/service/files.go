package service

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// removeFiles is the post-commit cleanup phase. It runs only after the
// deletion transaction has committed, so a rolled-back deletion never loses
// a file. Failures are logged and counted; they cannot fail the deletion.
func (r *deletionRun) removeFiles() {
	var removed, missing int64
	for _, pf := range r.pendingFiles {
		ok := r.svc.removeFileIfExists(pf.path)
		if pf.field != "" {
			r.summary.FilesRemoved[pf.field] = ok
		}
		if ok {
			removed++
		} else {
			missing++
		}
	}
	if len(r.pendingFiles) > 0 {
		r.summary.Record("user_files", map[string]int64{
			"removed": removed,
			"missing": missing,
		})
	}
}

// removeFileIfExists reports true when a file existed and was removed,
// false when it did not exist. OS-level errors (permissions, races) are
// logged and reported as false; filesystem cleanup is best-effort and must
// never block the primary deletion.
func (s *Service) removeFileIfExists(path string) bool {
	full := s.resolvePath(path)
	if full == "" {
		return false
	}
	err := os.Remove(full)
	switch {
	case err == nil:
		return true
	case os.IsNotExist(err):
		return false
	default:
		s.log.Warn("file removal failed", zap.String("path", full), zap.Error(err))
		return false
	}
}

func (s *Service) resolvePath(path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.mediaRoot, path)
}
