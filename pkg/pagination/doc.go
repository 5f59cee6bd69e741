// Package pagination reassembles multi-page API results into one envelope.
//
// ORTEX paginates with cursor links: each envelope carries a
// paginationLinks.next URL pointing at the following page. The pager
// follows those links, concatenating rows and accumulating credit spend,
// until the chain ends or MaxPages is reached.
//
// Example usage:
//
//	pager := pagination.New(ortexClient, pagination.DefaultConfig())
//	resp, err := pager.FetchAll(ctx, "NYSE/AMC/short_interest", nil)
//
// Because the next-page cursor only becomes known once the current page
// arrives, fetching is sequential; the client's throttler still paces the
// underlying calls.
package pagination
