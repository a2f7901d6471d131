package directive

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// --- Column YAML methods ---

// UnmarshalYAML accepts either a column name or a full column mapping.
func (c *Column) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}

		*c = Column{Name: name}

		return nil

	case yaml.MappingNode:
		type plain Column

		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}

		*c = Column(p)

		return nil

	default:
		return fmt.Errorf("line %d: expected column name or mapping, got %v", node.Line, kindName(node.Kind))
	}
}

// MarshalYAML writes a column carrying only a name as that name.
func (c Column) MarshalYAML() (any, error) {
	if c == (Column{Name: c.Name}) {
		return c.Name, nil
	}

	type plain Column

	return plain(c), nil
}

// --- Columns YAML methods ---

// UnmarshalYAML accepts a single column or a sequence of columns.
func (cs *Columns) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode, yaml.MappingNode:
		var c Column
		if err := node.Decode(&c); err != nil {
			return err
		}

		if c.Name == "" {
			*cs = Columns{}
		} else {
			*cs = Columns{c}
		}

		return nil

	case yaml.SequenceNode:
		out := make(Columns, 0, len(node.Content))

		for _, item := range node.Content {
			var c Column
			if err := item.Decode(&c); err != nil {
				return err
			}

			out = append(out, c)
		}

		*cs = out

		return nil

	default:
		return fmt.Errorf("line %d: expected column or column list, got %v", node.Line, kindName(node.Kind))
	}
}

// --- Index and Unique YAML methods ---

// UnmarshalYAML accepts an index name or a full index mapping.
func (i *Index) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}

		*i = Index{Name: name}

		return nil
	}

	type plain Index

	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}

	*i = Index(p)

	return nil
}

// UnmarshalYAML accepts a constraint name or a full unique mapping.
func (u *Unique) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}

		*u = Unique{Name: name}

		return nil
	}

	type plain Unique

	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}

	*u = Unique(p)

	return nil
}

// MarshalYAML writes an index carrying only a name as that name.
func (i Index) MarshalYAML() (any, error) {
	if i.Name != "" && !i.Unique && len(i.Columns) == 0 {
		return i.Name, nil
	}

	type plain Index

	return plain(i), nil
}

// MarshalYAML writes a constraint carrying only a name as that name.
func (u Unique) MarshalYAML() (any, error) {
	if u.Name != "" && u.Table == "" && !u.Deferred && len(u.Columns) == 0 {
		return u.Name, nil
	}

	type plain Unique

	return plain(u), nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
