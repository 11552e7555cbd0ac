// Package middleware groups the Fiber middleware shared by every feature.
//
//   - auth: rejects requests without the configured X-API-Key header. Path prefixes
//     such as /swagger can be exempted; an empty key disables the check.
//   - rayid: tags each request with a ray id (incoming X-Ray-ID or a fresh uuid),
//     echoed in the response and picked up by logger.WithRayID.
//
// Register rayid first so authentication failures are traceable too.
package middleware
