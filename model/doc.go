// Package model provides the reflective object graph the JSON codec reads
// and writes: namespaces of classes with typed features, a registry to look
// classes up and instantiate them, objects with containment and opposite
// bookkeeping, and documents that own containment trees together with an
// identifier index and diagnostics.
//
// Namespaces are built in code or loaded from YAML schema definitions and
// become immutable once registered:
//
//	ns := model.NewNamespace("http://example.com/fs", "fs")
//	file := ns.NewClass("File", model.NewAttribute("name", model.StringType))
//	folder := ns.NewClass("Folder", model.NewContainment("items", file, model.Many()))
//	reg := model.NewRegistry(model.WithNamespaces(ns))
package model
