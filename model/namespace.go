package model

import (
	"fmt"
	"slices"
)

// Namespace groups classes and data types under one URI.
type Namespace struct {
	URI    string
	Prefix string

	classes   []*Class
	dataTypes []*DataType
	sealed    bool
}

// NewNamespace creates an empty namespace. The prefix is the preferred short
// name written to documents and may be empty.
func NewNamespace(uri, prefix string) *Namespace {
	return &Namespace{URI: uri, Prefix: prefix}
}

// NewClass declares a class in the namespace.
func (ns *Namespace) NewClass(name string, features ...*Feature) *Class {
	if ns.sealed {
		panic(fmt.Sprintf("namespace %s is registered and cannot be modified", ns.URI))
	}
	c := &Class{Name: name, namespace: ns}
	c.AddFeatures(features...)
	ns.classes = append(ns.classes, c)
	return c
}

// NewDataType declares a data type in the namespace.
func (ns *Namespace) NewDataType(name string, category Category) *DataType {
	return ns.AddDataType(&DataType{Name: name, Category: category})
}

// NewEnum declares an enumeration data type with the given literal names.
// Literal values follow declaration order starting at zero.
func (ns *Namespace) NewEnum(name string, literals ...string) *DataType {
	dt := &DataType{Name: name, Category: CategoryEnum}
	for i, l := range literals {
		dt.Literals = append(dt.Literals, EnumLiteral{Name: l, Value: i})
	}
	return ns.AddDataType(dt)
}

// AddDataType adds an existing data type to the namespace.
func (ns *Namespace) AddDataType(dt *DataType) *DataType {
	if ns.sealed {
		panic(fmt.Sprintf("namespace %s is registered and cannot be modified", ns.URI))
	}
	if dt.namespace == nil {
		dt.namespace = ns
	}
	ns.dataTypes = append(ns.dataTypes, dt)
	return dt
}

// Classes returns the classes in declaration order.
func (ns *Namespace) Classes() []*Class {
	return slices.Clone(ns.classes)
}

// DataTypes returns the data types in declaration order.
func (ns *Namespace) DataTypes() []*DataType {
	return slices.Clone(ns.dataTypes)
}

// Class looks up a class by name.
func (ns *Namespace) Class(name string) *Class {
	for _, c := range ns.classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// DataType looks up a data type by name.
func (ns *Namespace) DataType(name string) *DataType {
	for _, dt := range ns.dataTypes {
		if dt.Name == name {
			return dt
		}
	}
	return nil
}

// Sealed reports whether the namespace was frozen by a registry.
func (ns *Namespace) Sealed() bool {
	return ns.sealed
}

func (ns *Namespace) seal() error {
	if ns.sealed {
		return nil
	}
	if ns.URI == "" {
		return fmt.Errorf("namespace without uri")
	}
	names := make(map[string]bool, len(ns.classes))
	for _, c := range ns.classes {
		if names[c.Name] {
			return fmt.Errorf("namespace %s declares class %q twice", ns.URI, c.Name)
		}
		names[c.Name] = true
		if err := c.seal(); err != nil {
			return err
		}
	}
	for _, c := range ns.classes {
		for _, f := range c.all {
			if f.Opposite == "" {
				continue
			}
			if f.Target == nil {
				return fmt.Errorf("reference %s declares opposite %q without a target class", f, f.Opposite)
			}
			opposite := f.Target.Feature(f.Opposite)
			if opposite == nil || !opposite.IsReference() {
				return fmt.Errorf("reference %s declares unknown opposite %q", f, f.Opposite)
			}
			if f.Containment && opposite.Containment {
				return fmt.Errorf("reference %s and its opposite are both containments", f)
			}
		}
	}
	ns.sealed = true
	return nil
}
