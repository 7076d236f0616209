// Package schema loads message declarations and their validation rules
// from YAML and compiles them into validators over decoded documents.
//
// A schema file declares a package, enums and messages. Fields may carry an
// explicit tag; the rest are numbered in declaration order with the lowest
// numbers not taken by explicit tags, reserved ranges or the range the
// protobuf implementation keeps for itself.
//
//	package: acme.v1
//	messages:
//	  - name: User
//	    reserved: ["2", "9 to 11"]
//	    fields:
//	      - name: email
//	        kind: string
//	        rules: {required: true, well_known: email}
//
// Load resolves the whole file and reports every problem it finds at once.
// Compile turns the result into a Registry holding one validator.Message per
// declared message, validating Document values as produced by decoding JSON
// or YAML:
//
//	s, err := schema.LoadFile("acme.yaml")
//	if err != nil {
//		return err
//	}
//	reg, err := s.Compile()
//	if err != nil {
//		return err
//	}
//	err = reg.ValidateAll("User", doc)
//
// FileDescriptor exports the declarations, without rules, as a proto3 file
// descriptor.
package schema
