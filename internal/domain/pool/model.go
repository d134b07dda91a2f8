package pool

import "fmt"

// Pool is a friends-group bracket pool. Only its creator may trigger the
// logo enrichment job.
type Pool struct {
	ID        string
	Name      string
	Season    int
	CreatedBy string
}

func (p Pool) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("pool id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("pool name is required")
	}
	if p.CreatedBy == "" {
		return fmt.Errorf("pool creator is required")
	}

	return nil
}
