// Package paging drives continuation-token traversal for paged
// operations. A paged response carries an ordered items array and an
// opaque continuation token; while a token is present the pager resolves
// the descriptor's next-operation reference (possibly in another
// operation group), derives the next call's grouped parameter from the
// originating call, and fetches the next page.
//
// Two consumption forms exist:
//
//	it := pager.Iterator(op, group, first, next)
//	for it.HasMorePages() {
//	    page, err := it.NextPage(ctx)
//	    ...
//	}
//
// streams pages and keeps partial progress with the caller, while
//
//	items, err := it.Collect(ctx)
//
// accumulates every item in fetch order and returns nothing on failure
// or cancellation. Termination is guaranteed only if the server
// eventually returns an absent continuation token; MaxPages is the
// cooperative guard for servers that never do.
package paging
