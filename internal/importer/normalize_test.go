package importer

import "testing"

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Producto", "producto"},
		{"  Nombre Vendedor ", "nombrevendedor"},
		{"Teléfono", "telefono"},
		{"DIRECCIÓN", "direccion"},
		{"Fecha de Registro", "fechaderegistro"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeHeader(tt.raw); got != tt.want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Chichén Itzá", "chichen itza"},
		{"  Xel   Ha  ", "xel ha"},
		{"TULUM", "tulum"},
		{"Isla  Mujeres   Catamarán", "isla mujeres catamaran"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.raw); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNewHeaderIndex(t *testing.T) {
	aliases := DefaultAliases()
	headers := []string{"Producto", "Cantidad", "Total", "Nombre", "Teléfono", "Vendedor"}
	index := NewHeaderIndex(headers, aliases)

	for key, wantPos := range map[string]int{
		ColProduct:  0,
		ColQuantity: 1,
		ColTotal:    2,
		ColName:     3,
		ColPhone:    4,
		ColSeller:   5,
	} {
		pos, ok := index[key]
		if !ok {
			t.Fatalf("column %q not indexed", key)
		}
		if pos != wantPos {
			t.Errorf("column %q at %d, want %d", key, pos, wantPos)
		}
	}
	if index.Has(ColDeposit) {
		t.Error("deposit column should be absent")
	}
}

func TestNewHeaderIndexFirstOccurrenceWins(t *testing.T) {
	index := NewHeaderIndex([]string{"Producto", "Product"}, DefaultAliases())
	if pos := index[ColProduct]; pos != 0 {
		t.Errorf("expected first product column to win, got position %d", pos)
	}
}

func TestHeaderIndexGetShortRow(t *testing.T) {
	index := NewHeaderIndex([]string{"Producto", "Total"}, DefaultAliases())
	if got := index.Get([]string{"Tulum"}, ColTotal); got != "" {
		t.Errorf("expected empty cell for short row, got %q", got)
	}
	if got := index.Get([]string{"  Tulum  "}, ColProduct); got != "Tulum" {
		t.Errorf("expected trimmed cell, got %q", got)
	}
}
