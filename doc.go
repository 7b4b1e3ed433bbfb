// Package metapager provides keyset (cursor) pagination over records whose
// ordering may combine built-in columns and auxiliary key/value attributes.
//
// Overview
//
// A page request names an ordering and an optional cursor. The engine
//   - resolves the ordering into an OrderSpec, appending the record identifier
//     as a final ascending key whenever no explicit key is unique, so that the
//     order is total;
//   - decodes the cursor into the boundary values of the last row seen;
//   - expands the boundary into the continuation predicate
//     (K1 > V1) OR (K1 = V1 AND K2 > V2) ... and ANDs it with the caller's
//     filter;
//   - asks the storage collaborator for pageSize+1 rows and trims the
//     lookahead row to learn whether another page exists;
//   - encodes the first and the last row into the page's cursors.
//
// Key concepts
//   - Resolver: turns OrderRequest variants into OrderSpecs.
//   - Filter: the caller's conditions on columns and auxiliary attributes.
//   - Scanner: the storage collaborator; see SliceScanner and the gormstore
//     package.
//   - Pager: the page executor.
//
// Pagination state lives in the client-held cursor only. Rows written between
// two page fetches at a position already passed may appear on neither or both
// pages.
package metapager
