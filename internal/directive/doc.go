// Package directive describes explicit-markup directives: how a directive block
// splits into arguments, options and content, and where handlers live.
package directive
