// Command invoicectl runs operational tasks against the invoice database.
package main

func main() {
	Execute()
}
