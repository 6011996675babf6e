package imageadapter

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/sarchlab/wireworld/cell"
)

// WriteSnapshot renders g and encodes it as a PNG at
// filepath.Join(dir, name). It supplements the original desktop client's
// QImage-based save/load feature, dropped by the protocol-focused
// distillation but still a natural fit for an adapter-layer component.
func WriteSnapshot(dir, name string, g *cell.Grid) error {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageadapter: create snapshot %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, GridToImage(g)); err != nil {
		return fmt.Errorf("imageadapter: encode snapshot %s: %w", path, err)
	}
	return nil
}
