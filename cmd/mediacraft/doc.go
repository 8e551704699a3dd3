// Command mediacraft is the command-line client for the MediaCraft media
// processing service. It submits watermark-removal and video-merge tasks,
// edits merge plans, watches processing progress, and downloads results.
package main
