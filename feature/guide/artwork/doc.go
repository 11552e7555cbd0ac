// Package artwork selects element images and mirrors service logos.
//
// # Resolution
//
// Resolve scans an ordered list of preferred tiers and returns the first candidate whose
// tier matches. It is deterministic and side-effect free; zero candidates or no matching tier
// is a normal "no artwork" outcome. Resolver layers per-entity tier preferences on top
// (sports events prefer "team event" then "sport event") and narrows to a preferred aspect
// ratio when one is available.
//
// # Logo mirror
//
// Mirror copies service logos into object storage while the rest of the run proceeds.
// Start returns a Task whose Done channel is closed exactly once; the orchestrator waits on
// it before assembling the document. Each logo is stat'ed in the bucket and downloaded with
// If-Modified-Since, so unchanged logos cost one 304. Identical URIs are collapsed with
// singleflight and downloads are bounded with an errgroup limit.
package artwork
