package importer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Canonical column keys produced by header normalization.
const (
	ColProduct    = "product"
	ColQuantity   = "quantity"
	ColTotal      = "total"
	ColName       = "name"
	ColPhone      = "phone"
	ColAddress    = "address"
	ColEntryDate  = "entryDate"
	ColSeller     = "nombreVendedor"
	ColDeposit    = "deposit"
	ColBalanceDue = "balanceDue"
	ColIsPaid     = "isPaid"
)

// Aliases holds the header and product-spelling alias tables. The defaults
// cover the known export formats; deployments can override them with a YAML
// file (IMPORT_ALIASES_PATH).
type Aliases struct {
	// Headers maps a normalized raw header to its canonical column key.
	Headers map[string]string `yaml:"headers"`
	// Products maps a known misspelled fragment of a normalized product name
	// to its correct form, tried before a lookup is declared unresolvable.
	Products map[string]string `yaml:"products"`
}

// DefaultAliases returns the built-in alias tables.
func DefaultAliases() *Aliases {
	return &Aliases{
		Headers: map[string]string{
			"product":         ColProduct,
			"producto":        ColProduct,
			"productos":       ColProduct,
			"articulo":        ColProduct,
			"quantity":        ColQuantity,
			"qty":             ColQuantity,
			"cantidad":        ColQuantity,
			"cant":            ColQuantity,
			"total":           ColTotal,
			"monto":           ColTotal,
			"importe":         ColTotal,
			"name":            ColName,
			"nombre":          ColName,
			"cliente":         ColName,
			"nombrecliente":   ColName,
			"phone":           ColPhone,
			"telefono":        ColPhone,
			"celular":         ColPhone,
			"tel":             ColPhone,
			"address":         ColAddress,
			"direccion":       ColAddress,
			"domicilio":       ColAddress,
			"date":            ColEntryDate,
			"fecha":           ColEntryDate,
			"fechaentrada":    ColEntryDate,
			"fechaderegistro": ColEntryDate,
			"vendedor":        ColSeller,
			"nombrevendedor":  ColSeller,
			"deposit":         ColDeposit,
			"deposito":        ColDeposit,
			"anticipo":        ColDeposit,
			"abono":           ColDeposit,
			"balance":         ColBalanceDue,
			"saldo":           ColBalanceDue,
			"restante":        ColBalanceDue,
			"paid":            ColIsPaid,
			"pagado":          ColIsPaid,
		},
		Products: map[string]string{
			// Spelling variants seen in real export files.
			"xcarte":      "xcaret",
			"tulun":       "tulum",
			"xelha":       "xel ha",
			"chichenitza": "chichen itza",
		},
	}
}

// LoadAliases reads alias overrides from a YAML file and merges them over the
// defaults. Keys present in the file replace the built-in entries; everything
// else is kept.
func LoadAliases(path string) (*Aliases, error) {
	aliases := DefaultAliases()
	if path == "" {
		return aliases, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read alias file %s: %w", path, err)
	}

	var overrides Aliases
	if err := yaml.Unmarshal(content, &overrides); err != nil {
		return nil, fmt.Errorf("could not parse alias file %s: %w", path, err)
	}

	for k, v := range overrides.Headers {
		aliases.Headers[NormalizeHeader(k)] = v
	}
	for k, v := range overrides.Products {
		aliases.Products[NormalizeName(k)] = NormalizeName(v)
	}
	return aliases, nil
}
