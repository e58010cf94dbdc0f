package output

import (
	"fmt"
	"reflect"
	"text/tabwriter"
)

// Table represents a pre-rendered table for table output formatting.
type Table struct {
	Headers []string   `json:"headers,omitempty" yaml:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Tabler is implemented by results that know their own table layout.
type Tabler interface {
	Table() Table
}

func (p *Printer) printTable(data interface{}) error {
	switch t := data.(type) {
	case Table:
		return p.printTableData(t.Headers, t.Rows)
	case Tabler:
		table := t.Table()
		return p.printTableData(table.Headers, table.Rows)
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Errorf("table format requires a list of items")
	}
	if v.Len() == 0 {
		return nil
	}

	headers, rows := buildTable(v)
	return p.printTableData(headers, rows)
}

func (p *Printer) printTableData(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell)
		}
		fmt.Fprintln(w)
	}
	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
	return w.Flush()
}

// buildTable derives headers from the json names of the first element's
// fields. Non-struct elements produce a single "value" column.
func buildTable(v reflect.Value) ([]string, [][]string) {
	first := deref(v.Index(0))
	if first.Kind() != reflect.Struct {
		rows := make([][]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			rows = append(rows, []string{fmt.Sprint(v.Index(i).Interface())})
		}
		return []string{"value"}, rows
	}

	var headers []string
	var idx []int
	for i := 0; i < first.NumField(); i++ {
		f := first.Type().Field(i)
		if !f.IsExported() {
			continue
		}
		name, _ := jsonName(f)
		if name == "-" {
			continue
		}
		headers = append(headers, name)
		idx = append(idx, i)
	}

	rows := make([][]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		item := deref(v.Index(i))
		if item.Kind() != reflect.Struct {
			rows = append(rows, []string{fmt.Sprint(item.Interface())})
			continue
		}
		row := make([]string, 0, len(idx))
		for _, j := range idx {
			row = append(row, fmt.Sprint(item.Field(j).Interface()))
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func deref(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}
	return v
}
