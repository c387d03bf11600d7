// Package knowledge contains concrete KnowledgeSource implementations. The
// source contract and Document type reside in the core package; depend on
// core.KnowledgeSource in your code and select an implementation (like the
// directory source below) at wiring time.
//
// DirSource reads UTF-8 text documents (.md, .txt by default) from a flat
// directory and renders them into one deterministic combined blob, ordered
// by file name. Watcher reports directory mutations via fsnotify so callers
// can trigger a knowledge reload.
package knowledge
