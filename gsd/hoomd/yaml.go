package hoomd

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"gopkg.in/yaml.v3"
)

// YAML documents mirror Snapshot with pointer fields, so an omitted key stays unset.

type configurationDoc struct {
	Step       *uint64     `yaml:"step,omitempty"`
	Dimensions *uint8      `yaml:"dimensions,omitempty"`
	Box        *[6]float32 `yaml:"box,omitempty,flow"`
}

type particlesDoc struct {
	N             *uint32       `yaml:"N,omitempty"`
	Types         *[]string     `yaml:"types,omitempty,flow"`
	TypeID        *[]uint32     `yaml:"typeid,omitempty,flow"`
	Mass          *[]float32    `yaml:"mass,omitempty,flow"`
	Charge        *[]float32    `yaml:"charge,omitempty,flow"`
	Diameter      *[]float32    `yaml:"diameter,omitempty,flow"`
	MomentInertia *[][3]float32 `yaml:"moment_inertia,omitempty,flow"`
	Position      *[][3]float32 `yaml:"position,omitempty,flow"`
	Orientation   *[][4]float32 `yaml:"orientation,omitempty,flow"`
	Velocity      *[][3]float32 `yaml:"velocity,omitempty,flow"`
	AngMom        *[][4]float32 `yaml:"angmom,omitempty,flow"`
	Image         *[][3]int32   `yaml:"image,omitempty,flow"`
}

type topologyDoc struct {
	N      *uint32     `yaml:"N,omitempty"`
	Types  *[]string   `yaml:"types,omitempty,flow"`
	TypeID *[]uint32   `yaml:"typeid,omitempty,flow"`
	Group  *[][]uint32 `yaml:"group,omitempty,flow"`
}

type snapshotDoc struct {
	Configuration *configurationDoc `yaml:"configuration,omitempty"`
	Particles     *particlesDoc     `yaml:"particles,omitempty"`
	Bonds         *topologyDoc      `yaml:"bonds,omitempty"`
	Angles        *topologyDoc      `yaml:"angles,omitempty"`
	Dihedrals     *topologyDoc      `yaml:"dihedrals,omitempty"`
	Impropers     *topologyDoc      `yaml:"impropers,omitempty"`
}

func newSnapshotDoc(s *Snapshot) *snapshotDoc {
	c, p := &s.Configuration, &s.Particles
	doc := &snapshotDoc{
		Configuration: &configurationDoc{
			Step:       optionalToPtr(c.Step),
			Dimensions: optionalToPtr(c.Dimensions),
			Box:        optionalToPtr(c.Box),
		},
		Particles: &particlesDoc{
			N:             optionalToPtr(p.N),
			Types:         optionalToPtr(p.Types),
			TypeID:        optionalToPtr(p.TypeID),
			Mass:          optionalToPtr(p.Mass),
			Charge:        optionalToPtr(p.Charge),
			Diameter:      optionalToPtr(p.Diameter),
			MomentInertia: optionalToPtr(p.MomentInertia),
			Position:      optionalToPtr(p.Position),
			Orientation:   optionalToPtr(p.Orientation),
			Velocity:      optionalToPtr(p.Velocity),
			AngMom:        optionalToPtr(p.AngMom),
			Image:         optionalToPtr(p.Image),
		},
		Bonds:     newTopologyDoc(&s.Bonds),
		Angles:    newTopologyDoc(&s.Angles),
		Dihedrals: newTopologyDoc(&s.Dihedrals),
		Impropers: newTopologyDoc(&s.Impropers),
	}
	if *doc.Configuration == (configurationDoc{}) {
		doc.Configuration = nil
	}
	if *doc.Particles == (particlesDoc{}) {
		doc.Particles = nil
	}
	return doc
}

func newTopologyDoc(t *Topology) *topologyDoc {
	doc := &topologyDoc{
		N:      optionalToPtr(t.N),
		Types:  optionalToPtr(t.Types),
		TypeID: optionalToPtr(t.TypeID),
		Group:  optionalToPtr(t.Group),
	}
	if *doc == (topologyDoc{}) {
		return nil
	}
	return doc
}

func (doc *snapshotDoc) snapshot() *Snapshot {
	s := NewSnapshot()
	if c := doc.Configuration; c != nil {
		s.Configuration = Configuration{
			Step:       optionalFromPtr(c.Step),
			Dimensions: optionalFromPtr(c.Dimensions),
			Box:        optionalFromPtr(c.Box),
		}
	}
	if p := doc.Particles; p != nil {
		s.Particles = Particles{
			N:             optionalFromPtr(p.N),
			Types:         optionalFromPtr(p.Types),
			TypeID:        optionalFromPtr(p.TypeID),
			Mass:          optionalFromPtr(p.Mass),
			Charge:        optionalFromPtr(p.Charge),
			Diameter:      optionalFromPtr(p.Diameter),
			MomentInertia: optionalFromPtr(p.MomentInertia),
			Position:      optionalFromPtr(p.Position),
			Orientation:   optionalFromPtr(p.Orientation),
			Velocity:      optionalFromPtr(p.Velocity),
			AngMom:        optionalFromPtr(p.AngMom),
			Image:         optionalFromPtr(p.Image),
		}
	}
	for cat, t := range map[Category]*topologyDoc{
		CategoryBonds: doc.Bonds, CategoryAngles: doc.Angles,
		CategoryDihedrals: doc.Dihedrals, CategoryImpropers: doc.Impropers,
	} {
		if t == nil {
			continue
		}
		*s.Topology(cat) = Topology{
			N:      optionalFromPtr(t.N),
			Types:  optionalFromPtr(t.Types),
			TypeID: optionalFromPtr(t.TypeID),
			Group:  optionalFromPtr(t.Group),
		}
	}
	return s
}

// EncodeYAML writes each snapshot of seq as one YAML document. Unset fields are omitted.
func EncodeYAML(w io.Writer, seq iter.Seq2[*Snapshot, error]) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for s, err := range seq {
		if err != nil {
			return err
		}
		if err := enc.Encode(newSnapshotDoc(s)); err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
	}
	return enc.Close()
}

// DecodeYAML lazily decodes a stream of YAML documents into snapshots, one document per
// iteration. Unknown keys are rejected. Iteration stops after the first error.
func DecodeYAML(r io.Reader) iter.Seq2[*Snapshot, error] {
	return func(yield func(*Snapshot, error) bool) {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		for doc := 1; ; doc++ {
			var sd snapshotDoc
			err := dec.Decode(&sd)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("yaml document %d: %w", doc, err))
				return
			}
			if !yield(sd.snapshot(), nil) {
				return
			}
		}
	}
}

// ReadYAMLFile decodes the first YAML document of the file at path.
func ReadYAMLFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	for s, err := range DecodeYAML(f) {
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("%s: no yaml document", path)
}
