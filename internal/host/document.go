// Package host is the CAD-host side of the relay: it polls queued commands, applies them to
// the host document on its owning goroutine and periodically pushes snapshots.
package host

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"geometry-relay/internal/models"
)

var (
	ErrElementNotFound = errors.New("element not found")
	ErrDegenerateBox   = errors.New("box has a non-positive extent")
)

// Element is one host-native element as seen through its bounding box.
type Element struct {
	ID         string
	Category   string
	Center     models.Vec3
	Size       models.Vec3
	WebCreated bool
	Properties map[string]string
}

// Document is the host document. Implementations are not safe for concurrent use; every
// call must happen on the goroutine running the Dispatcher.
type Document interface {
	ProjectName() string
	Elements() []Element
	Selection() []string

	// Transact runs fn as one undoable unit: if fn fails, every change it made is discarded.
	Transact(name string, fn func() error) error
	AddBox(spec models.BoxSpec) (string, error)
	DeleteElement(id string) error
	MoveElement(id string, center models.Vec3) error
	SetSelection(ids []string) error
}

// MemoryDocument is an in-memory Document used by the host simulator and tests.
type MemoryDocument struct {
	project   string
	elements  map[string]Element
	selection []string
	nextID    int
}

// NewMemoryDocument creates an empty document for project.
func NewMemoryDocument(project string) *MemoryDocument {
	return &MemoryDocument{project: project, elements: make(map[string]Element), nextID: 1000}
}

func (d *MemoryDocument) ProjectName() string { return d.project }

// Insert adds a host-native element and returns its id.
func (d *MemoryDocument) Insert(category string, center, size models.Vec3, props map[string]string) string {
	id := d.allocateID()
	d.elements[id] = Element{ID: id, Category: category, Center: center, Size: size, Properties: props}
	return id
}

// Elements returns the elements ordered by numeric id.
func (d *MemoryDocument) Elements() []Element {
	out := make([]Element, 0, len(d.elements))
	for _, e := range d.elements {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].ID)
		b, _ := strconv.Atoi(out[j].ID)
		return a < b
	})
	return out
}

func (d *MemoryDocument) Selection() []string {
	return append([]string(nil), d.selection...)
}

func (d *MemoryDocument) Transact(name string, fn func() error) error {
	savedElements := make(map[string]Element, len(d.elements))
	for k, v := range d.elements {
		savedElements[k] = v
	}
	savedSelection := d.Selection()
	savedNext := d.nextID

	if err := fn(); err != nil {
		d.elements, d.selection, d.nextID = savedElements, savedSelection, savedNext
		return errors.Wrapf(err, "transaction %q rolled back", name)
	}
	return nil
}

func (d *MemoryDocument) AddBox(spec models.BoxSpec) (string, error) {
	if spec.SizeX <= 0 || spec.SizeY <= 0 || spec.SizeZ <= 0 {
		return "", errors.Wrapf(ErrDegenerateBox, "size %gx%gx%g", spec.SizeX, spec.SizeY, spec.SizeZ)
	}
	category := spec.Category
	if category == "" {
		category = "WebBox"
	}
	id := d.allocateID()
	d.elements[id] = Element{
		ID:         id,
		Category:   category,
		Center:     spec.Center(),
		Size:       spec.Size(),
		WebCreated: true,
		Properties: spec.Properties,
	}
	return id, nil
}

func (d *MemoryDocument) DeleteElement(id string) error {
	if _, ok := d.elements[id]; !ok {
		return errors.Wrapf(ErrElementNotFound, "element %s", id)
	}
	delete(d.elements, id)
	d.selection = removeID(d.selection, id)
	return nil
}

func (d *MemoryDocument) MoveElement(id string, center models.Vec3) error {
	e, ok := d.elements[id]
	if !ok {
		return errors.Wrapf(ErrElementNotFound, "element %s", id)
	}
	e.Center = center
	d.elements[id] = e
	return nil
}

func (d *MemoryDocument) SetSelection(ids []string) error {
	selection := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := d.elements[id]; ok {
			selection = append(selection, id)
		}
	}
	d.selection = selection
	return nil
}

func (d *MemoryDocument) allocateID() string {
	id := fmt.Sprintf("%d", d.nextID)
	d.nextID++
	return id
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
