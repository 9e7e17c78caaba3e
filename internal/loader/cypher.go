package loader

// Every write unwinds $batch and is safe to replay: nodes MERGE on their key,
// relationships MERGE on identity properties only, everything else is SET.

const countryCypher = `UNWIND $batch AS row
MERGE (c:Country {name: row.name})
SET c.code = row.code`

const sicCodeCypher = `UNWIND $batch AS row
MERGE (s:SICCode {code: row.code})
SET s.description = row.description`

const companyCypher = `UNWIND $batch AS row
MERGE (c:Company {companyNumber: row.companyNumber})
SET c.name = row.name,
    c.category = row.category,
    c.status = row.status,
    c.countryOfOrigin = row.countryOfOrigin,
    c.incorporationDate = date(row.incorporationDate),
    c.dissolutionDate = date(row.dissolutionDate),
    c.uri = row.uri,
    c.accountRefDay = row.accountRefDay,
    c.accountRefMonth = row.accountRefMonth,
    c.accountsCategory = row.accountsCategory,
    c.numMortCharges = row.numMortCharges,
    c.numMortOutstanding = row.numMortOutstanding,
    c.numMortSatisfied = row.numMortSatisfied,
    c.numGenPartners = row.numGenPartners,
    c.numLimPartners = row.numLimPartners`

const addressCypher = `UNWIND $batch AS row
MERGE (a:Address {addressLine1: row.addressLine1, postTown: row.postTown, postCode: row.postCode})
SET a.addressLine2 = row.addressLine2,
    a.county = row.county,
    a.country = row.country,
    a.careOf = row.careOf,
    a.poBox = row.poBox`

const hasAddressCypher = `UNWIND $batch AS row
MATCH (c:Company {companyNumber: row.companyNumber})
MATCH (a:Address {addressLine1: row.addressLine1, postTown: row.postTown, postCode: row.postCode})
MERGE (c)-[r:HAS_ADDRESS]->(a)
SET r.isCurrent = true`

// locatedInCypher follows the country stored on the Address, so rows that
// spell the shared address's country differently add no second edge.
const locatedInCypher = `UNWIND $batch AS row
MATCH (a:Address {addressLine1: row.addressLine1, postTown: row.postTown, postCode: row.postCode})
WHERE a.country = row.country
MATCH (c:Country {name: a.country})
MERGE (a)-[:LOCATED_IN]->(c)`

const classifiedAsCypher = `UNWIND $batch AS row
MATCH (c:Company {companyNumber: row.companyNumber})
MATCH (s:SICCode {code: row.sicCode})
MERGE (c)-[:CLASSIFIED_AS {rank: row.rank}]->(s)`

const previousNameCypher = `UNWIND $batch AS row
MATCH (c:Company {companyNumber: row.companyNumber})
MERGE (p:PreviousName {companyNumber: row.companyNumber, name: row.previousName, sequence: row.sequence})
SET p.changeDate = date(row.changeDate)
MERGE (c)-[r:PREVIOUSLY_NAMED {sequence: row.sequence}]->(p)
SET r.changeDate = p.changeDate`
