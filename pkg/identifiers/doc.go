// Package identifiers extracts the ordered list of accounts with pending
// follow requests from an Instagram data export or a plain list.
//
// Supported inputs:
//   - the HTML export page (pending_follow_requests.html), where every
//     profile link of the form https://www.instagram.com/<name> is one entry
//   - the JSON export (pending_follow_requests.json)
//   - a text file with one username per line
//
// Every source returns identifiers deduplicated in first-seen order.
package identifiers
