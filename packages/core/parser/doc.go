// Package parser reads rowspec suite files.
//
// A suite file is YAML. It declares classes with named row providers, an
// optional superclass, setup and teardown commands, and tests. Each test is a
// shell command whose {{0}}, {{1}} ... placeholders are filled from one row:
//
//	variables:
//	  bin: expr
//	classes:
//	  - name: Calc
//	    providers:
//	      - name: provideSums
//	        rows: [[1, 1, 2], [2, 3, 5]]
//	    tests:
//	      - name: add
//	        command: test $({{bin}} {{0}} + {{1}}) -eq {{2}}
//	        parameters: {}
//
// Build turns a parsed File into runner suites.
package parser
