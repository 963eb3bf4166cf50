package firestore

const (
	opEqual       = "EQUAL"
	opGreaterThan = "GREATER_THAN"
	opAnd         = "AND"
)

type runQueryRequest struct {
	StructuredQuery structuredQuery `json:"structuredQuery"`
}

type runQueryResponse struct {
	Document *Document `json:"document,omitempty"`
	ReadTime string    `json:"readTime,omitempty"`
}

type structuredQuery struct {
	From  []collectionSelector `json:"from"`
	Where *queryFilter         `json:"where,omitempty"`
}

type collectionSelector struct {
	CollectionID   string `json:"collectionId"`
	AllDescendants bool   `json:"allDescendants,omitempty"`
}

type queryFilter struct {
	FieldFilter     *fieldFilter     `json:"fieldFilter,omitempty"`
	CompositeFilter *compositeFilter `json:"compositeFilter,omitempty"`
}

type fieldFilter struct {
	Field fieldReference `json:"field"`
	Op    string         `json:"op"`
	Value Value          `json:"value"`
}

type fieldReference struct {
	FieldPath string `json:"fieldPath"`
}

type compositeFilter struct {
	Op      string        `json:"op"`
	Filters []queryFilter `json:"filters"`
}

func fieldCompare(path, op string, value Value) *queryFilter {
	return &queryFilter{FieldFilter: &fieldFilter{
		Field: fieldReference{FieldPath: path},
		Op:    op,
		Value: value,
	}}
}

func allOf(filters ...*queryFilter) *queryFilter {
	if len(filters) == 1 {
		return filters[0]
	}
	composite := &compositeFilter{Op: opAnd}
	for _, f := range filters {
		composite.Filters = append(composite.Filters, *f)
	}
	return &queryFilter{CompositeFilter: composite}
}
