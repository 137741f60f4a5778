package watcher

// ConvertEvent exposes the fsnotify mapping for tests.
var ConvertEvent = convertEvent
