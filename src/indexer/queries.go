package indexer

const simpleInvoiceFields = `
fragment SimpleInvoiceFields on Invoice {
  id
  orderId
  seller
  buyer
  price
  amountPaid
  state
  createdAt
  paidAt
  releaseAt
  invalidateAt
  expiresAt
  cancelAt
  paymentTxHash
  releaseHash
  refundTxHash
  history {
    status
    timestamp
  }
}`

const marketplaceInvoiceFields = `
fragment MarketplaceInvoiceFields on MarketplaceInvoice {
  id
  orderId
  seller
  buyer
  price
  amountPaid
  state
  createdAt
  paidAt
  releaseAt
  invalidateAt
  expiresAt
  cancelAt
  paymentTxHash
  releaseHash
  refundTxHash
  history {
    status
    timestamp
  }
}`

const userInvoicesQuery = `
query UserInvoices(
  $address: String!
  $sellerFirst: Int!
  $sellerSkip: Int!
  $buyerFirst: Int!
  $buyerSkip: Int!
  $issuedFirst: Int!
  $issuedSkip: Int!
  $receivedFirst: Int!
  $receivedSkip: Int!
) {
  sellerInvoices: invoices(first: $sellerFirst, skip: $sellerSkip, where: { seller: $address }, orderBy: createdAt, orderDirection: desc) {
    ...SimpleInvoiceFields
  }
  buyerInvoices: invoices(first: $buyerFirst, skip: $buyerSkip, where: { buyer: $address }, orderBy: createdAt, orderDirection: desc) {
    ...SimpleInvoiceFields
  }
  issuedInvoices: marketplaceInvoices(first: $issuedFirst, skip: $issuedSkip, where: { seller: $address }, orderBy: createdAt, orderDirection: desc) {
    ...MarketplaceInvoiceFields
  }
  receivedInvoices: marketplaceInvoices(first: $receivedFirst, skip: $receivedSkip, where: { buyer: $address }, orderBy: createdAt, orderDirection: desc) {
    ...MarketplaceInvoiceFields
  }
}
` + simpleInvoiceFields + marketplaceInvoiceFields

const allInvoicesQuery = `
query AllInvoices(
  $invoicesFirst: Int!
  $invoicesSkip: Int!
  $actionsFirst: Int!
  $actionsSkip: Int!
  $marketplaceFirst: Int!
  $marketplaceSkip: Int!
) {
  invoices(first: $invoicesFirst, skip: $invoicesSkip, orderBy: createdAt, orderDirection: desc) {
    ...SimpleInvoiceFields
  }
  actions: adminActions(first: $actionsFirst, skip: $actionsSkip, orderBy: timestamp, orderDirection: desc) {
    id
    orderId
    action
    actor
    txHash
    timestamp
  }
  marketplaceInvoices(first: $marketplaceFirst, skip: $marketplaceSkip, orderBy: createdAt, orderDirection: desc) {
    ...MarketplaceInvoiceFields
  }
}
` + simpleInvoiceFields + marketplaceInvoiceFields

const notesQuery = `
query InvoiceNotes($orderId: String!) {
  notes(where: { orderId: $orderId }, orderBy: noteId, orderDirection: asc) {
    id
    orderId
    noteId
    author
    share
    content
  }
  noteOpenStates(where: { orderId: $orderId }) {
    noteId
    open
  }
}
`
