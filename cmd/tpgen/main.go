// tpgen generates hardware test plans and checks plan documents before they
// are committed.
//
// Usage:
//
//	# Generate a plan from a selection file and save it
//	tpgen generate --selection selection.yaml --out plans/
//
//	# Syntax-check every plan in a directory
//	tpgen lint --dir plans/
//
//	# Run the full pipeline (syntax, parse, compatibility rules)
//	tpgen validate --file plans/test_plan_2024-03-09_140502.yaml
//
//	# List catalog machines able to run a plan
//	tpgen analyze --file plan.yaml
//
//	# Serve the HTTP API
//	tpgen serve --config tpgen.yaml
package main

func main() {
	Execute()
}
