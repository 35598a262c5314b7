package importer

import (
	"reflect"
	"testing"
)

func TestRowErrorCollectorGroupsByMessage(t *testing.T) {
	c := NewRowErrorCollector()
	c.Add(3, "unknown product \"atlantis\"")
	c.Add(5, "missing total")
	c.Add(9, "unknown product \"atlantis\"")

	groups := c.Groups()
	want := []ErrorGroup{
		{Message: "unknown product \"atlantis\"", Rows: []int{3, 9}},
		{Message: "missing total", Rows: []int{5}},
	}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("Groups() = %+v, want %+v", groups, want)
	}
}

func TestRowErrorCollectorEmpty(t *testing.T) {
	c := NewRowErrorCollector()
	if !c.Empty() {
		t.Error("new collector should be empty")
	}
	if c.Groups() != nil {
		t.Error("empty collector should return nil groups")
	}

	c.Add(2, "missing product")
	if c.Empty() {
		t.Error("collector with an entry should not be empty")
	}
}
