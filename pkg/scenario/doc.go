// Package scenario loads declarative graph descriptions from TOML and
// builds runnable programs out of them.
//
// A scenario file declares cells, sets, derived nodes and a sequence of
// transactions to replay:
//
//	title = "order total"
//
//	[[cells]]
//	name = "price"
//	value = 3.5
//
//	[[cells]]
//	name = "qty"
//	value = 2
//
//	[[nodes]]
//	name = "total"
//	op = "mul"
//	inputs = ["price", "qty"]
//
//	[[transactions]]
//	  [[transactions.set]]
//	  cell = "qty"
//	  value = 5
//
//	outputs = ["total"]
//
// [Load] and [Parse] validate the description, [Build] turns it into a live
// graph, and [Program.Run] replays the transactions while pulling the
// declared outputs after each commit.
package scenario
