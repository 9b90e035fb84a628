// Package checkpoint persists how far a cancellation run got so that an
// interrupted run can be resumed with --continue.
//
// The progress record is a single JSON document that is overwritten after
// every processed identifier:
//
//	{
//	  "position": 120,
//	  "success_count": 117,
//	  "failed_identifiers": ["alice", "bob", "carol"],
//	  "timestamp": "2024-05-01 14:03:22",
//	  "run_id": "3f0c...",
//	  "total": 450,
//	  "source": "data/pending_follow_requests.html"
//	}
//
// position counts identifiers consumed from the start of the list across all
// resumed runs, whether they succeeded or failed. Failed identifiers are not
// revisited on resume; they are written to the failed list instead.
//
// Writes go through storage.WriteFileAtomic, so the file on disk is always
// either the previous record or the new one.
package checkpoint
