package cil

import "strings"

// Format renders a method body's instruction stream the way the dump
// tool prints it, one instruction per line.
func Format(body *MethodBody) string {
	var sb strings.Builder
	if body.Owner != nil {
		sb.WriteString(".method ")
		sb.WriteString(body.Owner.FullName())
		sb.WriteString("\n")
	}
	for _, local := range body.Locals {
		sb.WriteString("  .locals ")
		sb.WriteString(local.String())
		sb.WriteString("\n")
	}
	for _, ins := range body.Instructions {
		sb.WriteString("  ")
		sb.WriteString(ins.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
