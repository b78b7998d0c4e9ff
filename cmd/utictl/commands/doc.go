// Package commands implements utictl, the storefront back-office CLI. Admin
// commands log in with the configured credentials and call the HTTP API;
// "coins convert" works offline.
package commands
