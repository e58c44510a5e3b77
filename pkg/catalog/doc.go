// Package catalog embeds the finance AI paper catalog in a Go program.
//
// It wires the same record store, query executor and upsert reconciler the
// HTTP service uses, without going over the network:
//
//	c, _ := catalog.Open(ctx, catalog.WithSQLite("data/papers.db"))
//	defer c.Close()
//
//	ins, upd, _ := c.Upsert(ctx, []catalog.Paper{{Title: "GNNs for AML", Link: "https://arxiv.org/abs/..."}})
//	page, _ := c.Search(ctx, catalog.Query{
//	    Criteria: catalog.Criteria{Function: "Fraud Detection"},
//	    Order:    "-year",
//	    Limit:    10,
//	})
package catalog
