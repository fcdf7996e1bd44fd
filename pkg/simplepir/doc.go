// Package simplepir is a single-server PIR engine in the style of SimplePIR,
// with an optional linear-relation proof that the server answered with the
// committed database.
//
// Arithmetic is over Z_q with q = 2^32, so every matrix element is a uint32
// and overflow is the modular reduction. Plaintexts live in Z_p with
// p = 2^k. An entry of d bits is split into ceil(d/k) base-p digits that are
// stacked in one column of the database matrix D, so a single query column
// recovers a whole entry.
//
// The engine is meant for learning and benchmarking. Parameters are not
// chosen for a security level, and nothing here is constant time.
//
// # Protocol
//
//	params, _ := e.Init(n, d)           // layout and public matrix A
//	db, _ := e.PackDatabase(entries, params)
//	packed := e.PackMatrixForAnswer(db)
//	hint := e.GenerateHint(params, db)  // H = D*A
//	digest := e.CommitHash(params, hint)
//
//	ct, sk, _ := e.Query(params, i)     // A*s + e + Delta*u_col
//	ans, _ := e.Answer(ct, packed)      // D*ct
//	v, _ := e.Recover(params, hint, ans, sk, i)
package simplepir
