// Package modeljson reads and writes documents of the reflective object
// model in package model as JSON.
//
// A document is written as an envelope:
//
//	{
//	  "json": {"version": "1.0", "encoding": "utf-8"},
//	  "ns": {"fs": "http://example.com/fs"},
//	  "content": [
//	    {"eClass": "fs:Folder", "data": {"name": "root", "items": [...]}}
//	  ]
//	}
//
// Objects carry their class as "prefix:Name" and their set features under
// "data". Contained objects are nested, other references are written as
// fragment strings: identifiers or paths like "//@items.0" for the same
// document and "other.json#//@items.0" for other documents. Elements of
// the meta namespace use a compact form without envelope when nested.
//
// Loading is two-phased. References to objects not read yet are queued and
// resolved once the whole document is built; references into other
// documents load them through the document set or become proxies.
package modeljson
