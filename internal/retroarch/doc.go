// Package retroarch reads and writes the memory of a running RetroArch core
// through its UDP network-command interface, and mirrors core memory into
// local regions that scan sessions can search.
//
// Enable "Network Commands" in RetroArch (default port 55355) before
// connecting.
package retroarch
