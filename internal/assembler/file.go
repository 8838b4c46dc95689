// SPDX-License-Identifier: MPL-2.0

package assembler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shinc/shinc/pkg/directive"
)

// WriteFile assembles events into path. The script is written to a temporary
// sibling and renamed into place only after a successful assembly, so a
// failed pass never leaves a file at path.
func WriteFile(path string, events []directive.Event, opts Options) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create build file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()           // already failing; close error is secondary
			_ = os.Remove(tmp.Name()) // best-effort cleanup of the partial file
		}
	}()

	if err = Assemble(tmp, events, opts); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close build file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set build file mode: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move build file into place: %w", err)
	}
	return nil
}
