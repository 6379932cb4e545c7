// Package packet implements the Cognitive Packet (CP) binary codec.
//
// A Cognitive Packet is one self-contained message between agents. The frame
// is big-endian with fixed-width fields except where a length prefix is noted:
//
//	Metadata
//	+-----------+--------------+-----------+-------------+
//	| packet_id | timestamp_ns | sender_id | receiver_id |
//	+-----------+--------------+-----------+-------------+
//	(bytes)        8               8           16    16
//
//	Header
//	+----------------+------------------+------------+
//	| context_anchor | intent_embedding | confidence |
//	+----------------+--+---------------+--+---------+
//	| content_type_id  | compression_id   | priority |
//	+------------------+------------------+----------+
//	(bytes)  32    512x4=2048    4    4    4    4
//
//	Payload
//	+--------------+--------------+
//	| payload_len  | payload body |
//	+--------------+--------------+
//	(bytes)  4          payload_len
//
//	Signature block
//	+---------+-----------------+----------+
//	| sig_len | signature_bytes | checksum |
//	+---------+-----------------+----------+
//	(bytes)  4       sig_len         4
//
// The trailing checksum is CRC-32C over every preceding byte of the frame,
// including the signature bytes. The signature covers everything before the
// signature length prefix, so the two integrity layers are independent: a
// frame can carry a valid checksum and an invalid signature, and vice versa.
//
// Decoding is strictly sequential and fails fast. A checksum mismatch rejects
// the whole frame before any field is exposed. An unregistered payload
// content type degrades gracefully: metadata and header are still returned
// for logging and routing, with the payload left as UnparsedPayload.
//
// Payload body layouts are owned by the packages that register them; see the
// graph package for the RelationalGraphSnippet and ErrorReport content types.
package packet
