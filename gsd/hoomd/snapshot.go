package hoomd

import "fmt"

// Category groups fields that share one entity count.
type Category int

const (
	CategoryConfiguration Category = iota
	CategoryParticles
	CategoryBonds
	CategoryAngles
	CategoryDihedrals
	CategoryImpropers
)

// EntityCategories lists the categories governed by an entity count N.
var EntityCategories = []Category{
	CategoryParticles, CategoryBonds, CategoryAngles, CategoryDihedrals, CategoryImpropers,
}

func (c Category) String() string {
	switch c {
	case CategoryConfiguration:
		return "configuration"
	case CategoryParticles:
		return "particles"
	case CategoryBonds:
		return "bonds"
	case CategoryAngles:
		return "angles"
	case CategoryDihedrals:
		return "dihedrals"
	case CategoryImpropers:
		return "impropers"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// GroupWidth returns the number of particle ids per entity for topology categories
// and 0 otherwise.
func (c Category) GroupWidth() int {
	switch c {
	case CategoryBonds:
		return 2
	case CategoryAngles:
		return 3
	case CategoryDihedrals, CategoryImpropers:
		return 4
	}
	return 0
}

// Configuration holds the global fields of a frame.
type Configuration struct {
	Step       Optional[uint64]
	Dimensions Optional[uint8]
	Box        Optional[[6]float32] // Lx, Ly, Lz, xy, xz, yz
}

// Particles holds per-particle fields. Array fields have one row per particle.
type Particles struct {
	N             Optional[uint32]
	Types         Optional[[]string]
	TypeID        Optional[[]uint32]
	Mass          Optional[[]float32]
	Diameter      Optional[[]float32]
	Charge        Optional[[]float32]
	MomentInertia Optional[[][3]float32]
	Position      Optional[[][3]float32]
	Orientation   Optional[[][4]float32]
	Velocity      Optional[[][3]float32]
	AngMom        Optional[[][4]float32]
	Image         Optional[[][3]int32]
}

// Topology holds bonds, angles, dihedrals or impropers. Each Group row lists
// Category.GroupWidth() particle ids.
type Topology struct {
	N      Optional[uint32]
	Types  Optional[[]string]
	TypeID Optional[[]uint32]
	Group  Optional[[][]uint32]
}

// Snapshot is the state of the system at one frame. Fields left unset by a producer are
// not written; snapshots returned by a Trajectory have every field set.
type Snapshot struct {
	Configuration Configuration
	Particles     Particles
	Bonds         Topology
	Angles        Topology
	Dihedrals     Topology
	Impropers     Topology
}

// NewSnapshot returns an empty snapshot with every field unset.
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Topology returns the topology section for c, or nil for a non-topology category.
func (s *Snapshot) Topology(c Category) *Topology {
	switch c {
	case CategoryBonds:
		return &s.Bonds
	case CategoryAngles:
		return &s.Angles
	case CategoryDihedrals:
		return &s.Dihedrals
	case CategoryImpropers:
		return &s.Impropers
	}
	return nil
}

// Count returns the N field of an entity category.
func (s *Snapshot) Count(c Category) *Optional[uint32] {
	if c == CategoryParticles {
		return &s.Particles.N
	}
	if t := s.Topology(c); t != nil {
		return &t.N
	}
	return nil
}
