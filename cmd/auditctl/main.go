// Command auditctl queries the audit trail from a terminal.
package main

func main() {
	Execute()
}
