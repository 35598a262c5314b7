package importer

// ErrorGroup is one deduplicated import error: a message plus every row it
// affected, in the order the rows were seen.
type ErrorGroup struct {
	Message string `json:"message"`
	Rows    []int  `json:"rows"`
}

// RowErrorCollector accumulates row-level import errors grouped by message.
// Messages keep their first-seen order so the summary is stable.
type RowErrorCollector struct {
	order []string
	rows  map[string][]int
}

// NewRowErrorCollector returns an empty collector.
func NewRowErrorCollector() *RowErrorCollector {
	return &RowErrorCollector{rows: make(map[string][]int)}
}

// Add records that rowNumber failed with the given message.
func (c *RowErrorCollector) Add(rowNumber int, message string) {
	if _, seen := c.rows[message]; !seen {
		c.order = append(c.order, message)
	}
	c.rows[message] = append(c.rows[message], rowNumber)
}

// Empty reports whether nothing was collected.
func (c *RowErrorCollector) Empty() bool {
	return len(c.order) == 0
}

// Groups returns the accumulated errors as an ordered sequence.
func (c *RowErrorCollector) Groups() []ErrorGroup {
	if c.Empty() {
		return nil
	}
	groups := make([]ErrorGroup, 0, len(c.order))
	for _, message := range c.order {
		groups = append(groups, ErrorGroup{Message: message, Rows: c.rows[message]})
	}
	return groups
}
