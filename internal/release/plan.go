package release

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/rpmrelay/rpmrelay/internal/builder"
	"github.com/rpmrelay/rpmrelay/internal/utils"
)

// protectedFiles are infrastructure entries owned by the backing build
// system. The planner never marks them obsolete and the file listing never
// copies them.
var protectedFiles = mapset.NewSet(
	"branch",
	"CVS",
	".cvsignore",
	"Makefile",
	"sources",
	".git",
	".gitignore",
)

// defaultCopyPatterns selects which working-copy files ride along with the
// spec file into the build system checkout.
var defaultCopyPatterns = []string{"*.patch"}

// Plan is the computed reconciliation between the files to publish and one
// destination checkout. Classification is by base name: a source file whose
// name exists in the destination is an update, otherwise it is new, and a
// destination file nothing copies over is obsolete.
type Plan struct {
	CopyPaths []string // ordered source paths
	DestDir   string
	New       mapset.Set[string]
	Updated   mapset.Set[string]
	Obsolete  mapset.Set[string]
}

// PlanSync classifies sourceFiles against the current contents of destDir.
// It touches nothing on disk.
func PlanSync(sourceFiles []string, destDir string) (*Plan, error) {
	plan := &Plan{
		CopyPaths: sourceFiles,
		DestDir:   destDir,
		New:       mapset.NewSet[string](),
		Updated:   mapset.NewSet[string](),
		Obsolete:  mapset.NewSet[string](),
	}

	copying := mapset.NewSet[string]()
	for _, src := range sourceFiles {
		copying.Add(filepath.Base(src))
	}

	entries, err := os.ReadDir(destDir)
	if err != nil {
		return nil, fmt.Errorf("list checkout %s: %w", destDir, err)
	}
	present := mapset.NewSet[string]()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		present.Add(e.Name())
	}

	for _, name := range copying.ToSlice() {
		if present.Contains(name) {
			plan.Updated.Add(name)
		} else {
			plan.New.Add(name)
		}
	}

	for _, name := range present.ToSlice() {
		if protectedFiles.Contains(name) {
			continue
		}
		if copying.Contains(name) {
			continue
		}
		plan.Obsolete.Add(name)
	}
	return plan, nil
}

// ApplySync copies every planned file into the destination, overwriting
// updates in place. Obsolete files are left alone here; their removal goes
// through the backing system's own command so it is tracked.
func ApplySync(plan *Plan) error {
	for _, src := range plan.CopyPaths {
		name := filepath.Base(src)
		if plan.New.Contains(name) {
			slog.Info("adding file", "name", name)
		} else {
			slog.Info("copying file", "name", name)
		}
		if err := utils.CopyFile(src, filepath.Join(plan.DestDir, name)); err != nil {
			return fmt.Errorf("sync %s: %w", name, err)
		}
	}
	return nil
}

// ListFilesToCopy returns the paths to publish: the manifest's spec file
// explicitly, since builders may source it from outside the working copy,
// plus every working-copy file matching the allow-list patterns. Protected
// names and stray spec files are skipped.
func ListFilesToCopy(m *builder.Manifest, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = defaultCopyPatterns
	}

	files := []string{m.SpecFile}
	entries, err := os.ReadDir(m.WorkingCopy)
	if err != nil {
		return nil, fmt.Errorf("list working copy %s: %w", m.WorkingCopy, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if protectedFiles.Contains(name) {
			slog.Debug("skipping protected file", "name", name)
			continue
		}
		if strings.HasSuffix(name, ".spec") {
			continue
		}
		for _, pattern := range patterns {
			ok, err := doublestar.Match(pattern, name)
			if err != nil {
				return nil, fmt.Errorf("copy pattern %q: %w", pattern, err)
			}
			if ok {
				files = append(files, filepath.Join(m.WorkingCopy, name))
				break
			}
		}
	}
	return files, nil
}

// sortedSet returns the set members in sorted order, for stable iteration
// and output.
func sortedSet(s mapset.Set[string]) []string {
	members := s.ToSlice()
	slices.Sort(members)
	return members
}
