// Package container assembles normalized per-pair OHLCV tables into a dense
// 4-dimensional labeled array addressed by (base asset, reference asset,
// field, time index).
package container

import (
	"fmt"

	"github.com/klevvr/go-crypto-history/internal/dimensions"
)

// Container is the dense 4-D result of a build. Cells for pairs with no
// market data, or for fields absent from a pair's table, stay nil.
type Container struct {
	dims *dimensions.Dimensions

	baseIndex  map[string]int
	refIndex   map[string]int
	fieldIndex map[string]int

	// cells[base][reference][field][time]
	cells [][][][]*string

	populated [][]bool
}

// NewContainer allocates an empty container over the resolved dimensions.
func NewContainer(dims *dimensions.Dimensions) *Container {
	c := &Container{
		dims:       dims,
		baseIndex:  indexOf(dims.BaseAssets),
		refIndex:   indexOf(dims.ReferenceAssets),
		fieldIndex: indexOf(dims.Fields),
	}

	c.cells = make([][][][]*string, len(dims.BaseAssets))
	c.populated = make([][]bool, len(dims.BaseAssets))
	for b := range c.cells {
		c.cells[b] = make([][][]*string, len(dims.ReferenceAssets))
		c.populated[b] = make([]bool, len(dims.ReferenceAssets))
		for r := range c.cells[b] {
			c.cells[b][r] = make([][]*string, len(dims.Fields))
			for f := range c.cells[b][r] {
				c.cells[b][r][f] = make([]*string, len(dims.TimeIndex))
			}
		}
	}
	return c
}

// Dimensions returns the container's coordinate axes.
func (c *Container) Dimensions() *dimensions.Dimensions {
	return c.dims
}

// Shape returns the axis lengths (base, reference, field, time).
func (c *Container) Shape() (int, int, int, int) {
	return len(c.dims.BaseAssets), len(c.dims.ReferenceAssets), len(c.dims.Fields), len(c.dims.TimeIndex)
}

// SetSlot writes a normalized table into the (base, reference) slot,
// overwriting any prior content. Table columns absent from the field axis are
// ignored; axis fields absent from the table leave their cells nil. The table
// must match the time-index depth exactly.
func (c *Container) SetSlot(base, reference string, table *Table) error {
	b, ok := c.baseIndex[base]
	if !ok {
		return fmt.Errorf("base asset %s is not on the container axis", base)
	}
	r, ok := c.refIndex[reference]
	if !ok {
		return fmt.Errorf("reference asset %s is not on the container axis", reference)
	}
	if table.Rows() != len(c.dims.TimeIndex) {
		return fmt.Errorf("table for %s%s has %d rows, container expects %d",
			base, reference, table.Rows(), len(c.dims.TimeIndex))
	}

	for j, column := range table.Columns {
		f, ok := c.fieldIndex[column]
		if !ok {
			continue
		}
		for t := range table.Cells {
			c.cells[b][r][f][t] = table.Cells[t][j]
		}
	}

	c.populated[b][r] = true
	return nil
}

// Value returns the cell at (base, reference, field, index). The second
// return is false for unknown labels, out-of-range indices, and nil cells.
func (c *Container) Value(base, reference, field string, index int) (string, bool) {
	b, ok := c.baseIndex[base]
	if !ok {
		return "", false
	}
	r, ok := c.refIndex[reference]
	if !ok {
		return "", false
	}
	f, ok := c.fieldIndex[field]
	if !ok {
		return "", false
	}
	if index < 0 || index >= len(c.dims.TimeIndex) {
		return "", false
	}
	cell := c.cells[b][r][f][index]
	if cell == nil {
		return "", false
	}
	return *cell, true
}

// HasSlot reports whether a (base, reference) slot has been populated.
func (c *Container) HasSlot(base, reference string) bool {
	b, ok := c.baseIndex[base]
	if !ok {
		return false
	}
	r, ok := c.refIndex[reference]
	if !ok {
		return false
	}
	return c.populated[b][r]
}

// PopulatedSlots returns the count of filled (base, reference) slots.
func (c *Container) PopulatedSlots() int {
	count := 0
	for b := range c.populated {
		for r := range c.populated[b] {
			if c.populated[b][r] {
				count++
			}
		}
	}
	return count
}

func indexOf(labels []string) map[string]int {
	index := make(map[string]int, len(labels))
	for i, label := range labels {
		index[label] = i
	}
	return index
}
