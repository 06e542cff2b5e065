package fortress

// Package fortress provides:
//
// - Precompiled runtime schema validation over decoded JSON/YAML data
// - Conditional field typing via an embedded expression language
//   ("when role=admin *? boolean : =false")
// - A stable error model via Issues (JSON Pointer, code, message)
// - Process-lifetime caching of compiled schemas and union value sets
//
// Design policy:
// - The Engine owns all cache state; no package-level globals.
// - Place the expression front end under expr/, path resolution under
//   fieldpath/, document loading under schemafile/, and the CLI under
//   cmd/fortress.
// - Value-time failures are data, not panics: validators always return a
//   Result. Only schema definition errors fail Precompile.
//
// Typical usage:
//
//  eng := fortress.New(fortress.Options{})
//  v, err := eng.Precompile(fortress.Description{
//      "role":   "admin|user|guest",
//      "access": "when role=admin *? =granted : =denied",
//  })
//  res := v.Validate(map[string]any{"role": "admin", "access": "granted"})
//
