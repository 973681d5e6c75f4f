package fields

// Transcripts captured from tesseract runs over the sample scans, artifacts
// included.

const prescriptionScanA = `Dr John Smith, M.D
2 Non-Important Street,
New York, Phane (000)-111-2222

Name: Maria Sharapova Date: 5/11/2022 _

Address: 9 tennis court, new Russia, DC

K

Prednisone 20 mg
Lialda 2.4 gram

Directions:
Prednisone, Taper 5 mg every 3 days,

Finish in 2.5 weeks . -
Lialda - take 2 pill everyday for 1 month —

: ‘Refill: 2_times,`

const prescriptionScanB = `Dr John Smith, M.D
2 Non-Important Street,
New York, Phone (000). -111-2222

Name: Virat Kohij _ | Date 2/05/2022

Address: 2 cricket blvd, New Delhi

Omeprazole 40 me

Directions: Use two tablets daily for three months

Refill: 3 times`

const patientScanA = `47/12/2020

Patient Medical Record

Patient Information Birth Date

Kathy Crawford May 6 1972

(737) 988-0851 Weight’

9264 Ash Dr 98

New York City, 10005 j *

United States Height:
190`

const patientScanB = `17/12/2020

Patient Medical Record

Patient Information : Birth Date
Jerry Lucas May 2 1998
(279) 920-8204 : Weight:
4218 Wheeler Ridge Dr 57

Buffalo, New York, 14201 Height:
United States 70.
`
