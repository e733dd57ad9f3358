// Package webhook implements the signed-message ingestion path: HMAC-SHA256
// signature verification, payload validation and idempotent persistence.
//
// # Request Flow
//
//  1. Raw body bytes and the X-Signature header reach Ingestor.Ingest
//  2. HMAC-SHA256 over the exact body bytes, constant-time comparison
//  3. Payload parsed and validated (schema, msisdn format, UTC timestamp)
//  4. Insert attempted unconditionally; the primary key decides created vs
//     duplicate
//  5. A typed Result is returned; the HTTP layer maps it to a status code
//
// # Security Model
//
//   - Signatures compared with crypto/subtle (constant-time)
//   - Missing secret and bad signature are indistinguishable to callers
//   - Callers cannot tell created from duplicate; deliveries are idempotent
//     and safe to retry
package webhook
